package cache

import (
	"encoding/json"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"github.com/vlad-stoian/jenkins-stage-metrics/internal/pkg/models"
)

type Elements map[string]models.Run

// Cache is a JSON file of describe responses for finished builds.
type Cache struct {
	FilePath string
	Runs     Elements
}

func NewCache(cachePath string) (*Cache, error) {
	elements, err := ReadCache(cachePath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading cache")
	}

	return &Cache{
		FilePath: cachePath,
		Runs:     elements,
	}, nil
}

func ReadCache(cachePath string) (Elements, error) {
	raw, err := ioutil.ReadFile(cachePath)
	if os.IsNotExist(err) {
		return Elements{}, nil
	}

	if err != nil {
		return Elements{}, errors.Wrap(err, "failed-to-read-cache-file")
	}

	var elements Elements
	err = json.Unmarshal(raw, &elements)
	if err != nil {
		return Elements{}, errors.Wrap(err, "failed-to-unmarshal-cache")
	}

	if elements == nil {
		elements = Elements{}
	}

	return elements, nil
}

func (c *Cache) Flush() error {
	raw, err := json.Marshal(c.Runs)
	if err != nil {
		return errors.Wrap(err, "failed-to-marshal-cache")
	}

	err = ioutil.WriteFile(c.FilePath, raw, 0644)
	if err != nil {
		return errors.Wrap(err, "failed-to-write-cache-file")
	}

	return nil
}

func (c *Cache) Lookup(key string) (models.Run, bool) {
	run, ok := c.Runs[key]
	return run, ok
}

func (c *Cache) Store(key string, run models.Run) error {
	c.Runs[key] = run

	return c.Flush()
}
