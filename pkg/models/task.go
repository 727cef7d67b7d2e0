package models

// Category represents the kind of work a task involves.
type Category string

const (
	CategoryStudy      Category = "study"
	CategoryCoding     Category = "coding"
	CategoryFitness    Category = "fitness"
	CategoryReading    Category = "reading"
	CategoryWriting    Category = "writing"
	CategoryOrganizing Category = "organizing"
	CategoryCreativity Category = "creativity"
	CategorySocial     Category = "social"
	CategoryOther      Category = "other"
)

// Categories lists every valid Category in display order.
var Categories = []Category{
	CategoryStudy, CategoryCoding, CategoryFitness, CategoryReading, CategoryWriting,
	CategoryOrganizing, CategoryCreativity, CategorySocial, CategoryOther,
}

// Priority represents the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every valid Priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Defaults applied to new tasks when the caller leaves a field unset.
const (
	DefaultCategory          = CategoryOther
	DefaultPriority          = PriorityMedium
	DefaultEstimatedDuration = 30
	DefaultCognitiveLoad     = 5
	MinCognitiveLoad         = 1
	MaxCognitiveLoad         = 10
)

// Task is a user-created unit of work as returned by the backend.
// Order defines its display position; the backend is the source of truth
// for every field.
type Task struct {
	ID                 string     `json:"id" yaml:"id"`
	UserID             string     `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Title              string     `json:"title" yaml:"title"`
	Description        string     `json:"description,omitempty" yaml:"description,omitempty"`
	Category           Category   `json:"category" yaml:"category"`
	Priority           Priority   `json:"priority" yaml:"priority"`
	EstimatedDuration  int        `json:"estimated_duration" yaml:"estimated_duration"`
	CognitiveLoad      int        `json:"cognitive_load" yaml:"cognitive_load"`
	IsDeepWork         bool       `json:"is_deep_work" yaml:"is_deep_work"`
	Completed          bool       `json:"completed" yaml:"completed"`
	Order              int        `json:"order" yaml:"order"`
	ScheduledDate      *Timestamp `json:"scheduled_date,omitempty" yaml:"scheduled_date,omitempty"`
	ScheduledStartTime *Timestamp `json:"scheduled_start_time,omitempty" yaml:"scheduled_start_time,omitempty"`
	ScheduledEndTime   *Timestamp `json:"scheduled_end_time,omitempty" yaml:"scheduled_end_time,omitempty"`
	CompletedAt        *Timestamp `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	CreatedAt          Timestamp  `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt          Timestamp  `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// TaskCreate is the body of a create request. The backend assigns id,
// order and completion state.
type TaskCreate struct {
	Title             string   `json:"title"`
	Description       string   `json:"description,omitempty"`
	Category          Category `json:"category"`
	Priority          Priority `json:"priority"`
	EstimatedDuration int      `json:"estimated_duration"`
	CognitiveLoad     int      `json:"cognitive_load"`
	IsDeepWork        bool     `json:"is_deep_work"`
}

// WithDefaults returns a copy of c with unset fields filled from the
// backend schema defaults.
func (c TaskCreate) WithDefaults() TaskCreate {
	if c.Category == "" {
		c.Category = DefaultCategory
	}
	if c.Priority == "" {
		c.Priority = DefaultPriority
	}
	if c.EstimatedDuration == 0 {
		c.EstimatedDuration = DefaultEstimatedDuration
	}
	if c.CognitiveLoad == 0 {
		c.CognitiveLoad = DefaultCognitiveLoad
	}
	return c
}

// TaskPatch is a partial update. Nil fields are left untouched by the
// backend and omitted from the request body.
type TaskPatch struct {
	Title             *string   `json:"title,omitempty"`
	Description       *string   `json:"description,omitempty"`
	Category          *Category `json:"category,omitempty"`
	Priority          *Priority `json:"priority,omitempty"`
	EstimatedDuration *int      `json:"estimated_duration,omitempty"`
	CognitiveLoad     *int      `json:"cognitive_load,omitempty"`
	IsDeepWork        *bool     `json:"is_deep_work,omitempty"`
	Completed         *bool     `json:"completed,omitempty"`
	Order             *int      `json:"order,omitempty"`
}

// IsEmpty reports whether the patch sets no field at all.
func (p TaskPatch) IsEmpty() bool {
	return p == TaskPatch{}
}

// Apply returns a copy of t with every set field of p applied.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.EstimatedDuration != nil {
		t.EstimatedDuration = *p.EstimatedDuration
	}
	if p.CognitiveLoad != nil {
		t.CognitiveLoad = *p.CognitiveLoad
	}
	if p.IsDeepWork != nil {
		t.IsDeepWork = *p.IsDeepWork
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
	return t
}

// ReorderItem is one entry of a reorder payload: the task's new zero-based
// position.
type ReorderItem struct {
	ID    string `json:"id" yaml:"id"`
	Order int    `json:"order" yaml:"order"`
}

// StatusFilter selects tasks by completion state.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterActive    StatusFilter = "active"
	FilterCompleted StatusFilter = "completed"
)

// ViewQuery is the input of the list projection: a status filter plus a
// free-text search string.
type ViewQuery struct {
	Status StatusFilter
	Search string
}
