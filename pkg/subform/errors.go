package subform

import "errors"

var (
	// ErrNoSubForm is returned when the descriptor carries no sub-form config.
	ErrNoSubForm = errors.New("subform: descriptor has no sub-form config")
	// ErrAddUnavailable is returned by OpenAdd when a single-item sub-form is
	// already filled.
	ErrAddUnavailable = errors.New("subform: add is not available")
	// ErrItemIndex is returned for an index outside the item list.
	ErrItemIndex = errors.New("subform: item index out of range")
	// ErrNotEditing is returned by Save when the editor is closed.
	ErrNotEditing = errors.New("subform: no item is being edited")
	// ErrNoPendingDelete is returned by ConfirmDelete without a prior request.
	ErrNoPendingDelete = errors.New("subform: no delete requested")
)
