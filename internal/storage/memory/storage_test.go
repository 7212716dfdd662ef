package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pokearena/internal/storage"
	"github.com/mcoot/pokearena/internal/storage/storagetest"
)

func TestStorageSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func() storage.Storage { return New() },
	})
}
