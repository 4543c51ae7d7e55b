package task

// Builder assembles a Task through chained setters. Setters mutate the
// builder and return it; Build copies the current draft out, so tasks built
// earlier never change when the builder is reused.
//
// Builder does not validate. Callers check title and due date (see
// form.Validate) before handing the result to a command.
type Builder struct {
	task Task
}

func NewBuilder() *Builder {
	return &Builder{task: Task{Priority: PriorityLow}}
}

// FromDraft seeds every field except the ID. An empty draft priority keeps
// the default.
func FromDraft(d Draft) *Builder {
	b := NewBuilder().
		SetTitle(d.Title).
		SetDescription(d.Description).
		SetDueDate(d.DueDate)
	if d.Priority != "" {
		b.SetPriority(d.Priority)
	}
	return b
}

func (b *Builder) SetID(id string) *Builder {
	b.task.ID = id
	return b
}

func (b *Builder) SetTitle(title string) *Builder {
	b.task.Title = title
	return b
}

func (b *Builder) SetDescription(text string) *Builder {
	b.task.Description = text
	return b
}

func (b *Builder) SetDueDate(date string) *Builder {
	b.task.DueDate = date
	return b
}

func (b *Builder) SetPriority(priority Priority) *Builder {
	b.task.Priority = priority
	return b
}

func (b *Builder) Build() Task {
	return b.task
}
