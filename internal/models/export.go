package models

import (
	"strconv"
	"strings"
	"time"
)

// UnitRef is an organizational unit owned by an ORG_ADMIN.
type UnitRef struct {
	ID        string `db:"id" json:"id"`
	FirstName string `db:"nombres" json:"first_name"`
	LastName  string `db:"apellidos" json:"last_name"`
}

// DisplayName joins first and last names.
func (u UnitRef) DisplayName() string {
	return JoinName(u.FirstName, u.LastName)
}

// WorkerRef is a field worker owned by a unit.
type WorkerRef struct {
	ID        string `db:"id" json:"id"`
	FirstName string `db:"nombres" json:"first_name"`
	LastName  string `db:"apellidos" json:"last_name"`
}

// DisplayName joins first and last names.
func (w WorkerRef) DisplayName() string {
	return JoinName(w.FirstName, w.LastName)
}

// ItemSummary is an item row without its photos.
type ItemSummary struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"nombre" json:"name"`
	WorkerID  *string   `db:"asignado_a" json:"worker_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PhotoRef points to one remotely stored photo. Address may be empty, which is not an error.
type PhotoRef struct {
	ID      string  `db:"id" json:"id"`
	Name    *string `db:"nombre" json:"name,omitempty"`
	Address *string `db:"direccion" json:"address,omitempty"`
}

// RemoteAddress returns the trimmed address or "".
func (p PhotoRef) RemoteAddress() string {
	if p.Address == nil {
		return ""
	}
	return strings.TrimSpace(*p.Address)
}

// DisplayName returns the photo name or "".
func (p PhotoRef) DisplayName() string {
	if p.Name == nil {
		return ""
	}
	return *p.Name
}

// ItemDetail is an item together with its photos in listing order.
type ItemDetail struct {
	ItemSummary
	Photos []PhotoRef `json:"photos"`
}

// ScopeKind discriminates export scopes.
type ScopeKind string

const (
	ScopeAllForDate   ScopeKind = "day"
	ScopeSingleWorker ScopeKind = "worker"
	ScopeSingleItem   ScopeKind = "item"
)

// ExportScope is the requested export granularity.
type ExportScope struct {
	Kind     ScopeKind
	Date     string
	WorkerID string
	ItemID   string
}

// AllForDate scopes an export to every item recorded on date.
func AllForDate(date string) ExportScope {
	return ExportScope{Kind: ScopeAllForDate, Date: date}
}

// SingleWorker scopes an export to every item of one worker.
func SingleWorker(workerID string) ExportScope {
	return ExportScope{Kind: ScopeSingleWorker, WorkerID: workerID}
}

// SingleItem scopes an export to one item.
func SingleItem(itemID string) ExportScope {
	return ExportScope{Kind: ScopeSingleItem, ItemID: itemID}
}

// SelfUnitID keys the implicit unit of a UNIT_LEAD identity.
const SelfUnitID = "self"

// UnitWorkers is one entry of the role-expanded ownership map.
type UnitWorkers struct {
	UnitID      string      `json:"unit_id"`
	DisplayName string      `json:"display_name"`
	Workers     []WorkerRef `json:"workers"`
}

// Ownership is the role-expanded unit to worker mapping of an identity, in stable order.
type Ownership struct {
	Units []UnitWorkers `json:"units"`
}

// WorkerCount counts workers across all units.
func (o Ownership) WorkerCount() int {
	total := 0
	for _, unit := range o.Units {
		total += len(unit.Workers)
	}
	return total
}

// WorkerIDs flattens the worker ids of every unit.
func (o Ownership) WorkerIDs() []string {
	ids := make([]string, 0, o.WorkerCount())
	for _, unit := range o.Units {
		for _, worker := range unit.Workers {
			ids = append(ids, worker.ID)
		}
	}
	return ids
}

// ExportTree is the fully resolved, read-only hierarchy an export walks. Every folder name is
// already sanitized and unique among its siblings.
type ExportTree struct {
	// Name is the archive base name, without extension.
	Name string
	// Root holds the leading folders shared by every path, possibly none.
	Root  []string
	Units []UnitNode
}

// UnitNode groups workers. Folder is empty when the scope has no unit level.
type UnitNode struct {
	ID      string
	Folder  string
	Workers []WorkerNode
}

// WorkerNode groups items. Folder is empty when the scope has no worker level.
type WorkerNode struct {
	ID     string
	Folder string
	Items  []ItemNode
}

// ItemNode is one item folder and the photos to place in it.
type ItemNode struct {
	ID     string
	Folder string
	Photos []PhotoRef
}

// ItemCount counts items across the tree.
func (t ExportTree) ItemCount() int {
	total := 0
	for _, unit := range t.Units {
		for _, worker := range unit.Workers {
			total += len(worker.Items)
		}
	}
	return total
}

// HasAddressedPhoto reports whether at least one photo anywhere in the tree can be fetched.
func (t ExportTree) HasAddressedPhoto() bool {
	for _, unit := range t.Units {
		for _, worker := range unit.Workers {
			for _, item := range worker.Items {
				for _, photo := range item.Photos {
					if photo.RemoteAddress() != "" {
						return true
					}
				}
			}
		}
	}
	return false
}

// PhotoFailure records one photo that could not be retrieved.
type PhotoFailure struct {
	ContextPath string `json:"context_path"`
	PhotoIndex  int    `json:"photo_index"`
	Reason      string `json:"reason"`
}

// String renders the failure the way it is reported to callers.
func (f PhotoFailure) String() string {
	return f.ContextPath + " photo " + strconv.Itoa(f.PhotoIndex) + ": " + f.Reason
}
