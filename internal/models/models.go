package models

import (
	"time"
)

// Model defines the base interface for all persistent models in the sync daemon.
// Implementations include SyncRun.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// List describes a task list on the remote service.
type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaskExport is the serializable form of a single task.
type TaskExport struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Notes   string `json:"notes,omitempty"`
	Due     string `json:"due,omitempty"`
	Status  string `json:"status"`
	Updated string `json:"updated,omitempty"`
}

// ListExport bundles a task list with its tasks for file export.
type ListExport struct {
	Account string       `json:"account"`
	List    List         `json:"list"`
	Tasks   []TaskExport `json:"tasks"`
}
