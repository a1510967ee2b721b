package repository

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrExecutionNotFound is returned by GetExecution for an unknown id.
var ErrExecutionNotFound = errors.New("execution not found")

type Execution struct {
	ID string `gorm:"primarykey"`

	FileName string
	Status   string
	Success  bool
	ExitCode int

	CompileMs   int64
	RunMs       int64
	MemoryBytes int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Client) InsertExecution(execution *Execution) error {
	result := c.DB.Create(execution)
	return errors.Wrap(result.Error, "failed to insert execution")
}

func (c Client) GetExecution(id string) (*Execution, error) {
	var execution Execution

	result := c.DB.First(&execution, "id = ?", id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrExecutionNotFound
	}

	if result.Error != nil {
		return nil, errors.Wrapf(result.Error, "failed to get execution %s", id)
	}

	return &execution, nil
}
