package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssetManager(t *testing.T) {
	am := NewManager()

	t.Run("GetData", func(t *testing.T) {
		// Test loading an existing data file
		data, err := am.GetData(StalenhagData)
		assert.NoError(t, err)
		assert.NotEmpty(t, data)

		// Test loading a non-existent data file
		_, err = am.GetData("non_existent.json")
		assert.Error(t, err)

		_, err = am.GetData("")
		assert.Error(t, err)
	})

	t.Run("GetJSON", func(t *testing.T) {
		var collections []struct {
			Tag    string `json:"tag"`
			Images []struct {
				Src string `json:"src"`
			} `json:"images"`
		}
		err := am.GetJSON(StalenhagData, &collections)
		assert.NoError(t, err)
		assert.NotEmpty(t, collections)
		for _, c := range collections {
			assert.NotEmpty(t, c.Tag)
			assert.NotEmpty(t, c.Images, c.Tag)
		}

		var wrong int
		assert.Error(t, am.GetJSON(StalenhagData, &wrong))
	})
}
