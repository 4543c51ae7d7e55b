package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskforge/internal/command"
	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
)

func mk(id, title string) task.Task {
	return task.NewBuilder().SetID(id).SetTitle(title).Build()
}

func ids(tasks []task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestBoard(t *testing.T) {
	b := New(mk("a", "A"), mk("b", "B"), mk("a", "dup"))
	assert.Equal(t, []string{"a", "b"}, ids(b.Tasks()))

	require.NoError(t, b.Insert(1, mk("c", "C")))
	require.NoError(t, b.Insert(99, mk("d", "D")))
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(b.Tasks()))

	err := b.Add(mk("a", "again"))
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))
	assert.True(t, cerr.IsCode(b.Add(task.Task{Title: "no id"}), cerr.InvalidArgument))

	removed, idx, err := b.Remove("c")
	require.NoError(t, err)
	assert.Equal(t, "C", removed.Title)
	assert.Equal(t, 1, idx)

	_, _, err = b.Remove("c")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	prev, err := b.Replace(mk("b", "B2"))
	require.NoError(t, err)
	assert.Equal(t, "B", prev.Title)
	got, ok := b.Get("b")
	require.True(t, ok)
	assert.Equal(t, "B2", got.Title)

	_, err = b.Replace(mk("zzz", ""))
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
	assert.Equal(t, 3, b.Len())
}

func TestBoard_TasksIsACopy(t *testing.T) {
	b := New(mk("a", "A"))
	ts := b.Tasks()
	ts[0].Title = "mutated"
	got, _ := b.Get("a")
	assert.Equal(t, "A", got.Title)
}

func TestCommands_WithManager(t *testing.T) {
	b := New(mk("1", "one"), mk("2", "two"), mk("3", "three"))
	initial := b.Tasks()
	m := command.NewManager()

	require.NoError(t, m.ExecuteCommand(NewAddTask(b, mk("4", "four"))))
	require.NoError(t, m.ExecuteCommand(NewDeleteTask(b, "2")))
	updated := mk("1", "ONE")
	updated.Priority = task.PriorityHigh
	require.NoError(t, m.ExecuteCommand(NewUpdateTask(b, updated)))

	assert.Equal(t, []string{"1", "3", "4"}, ids(b.Tasks()))
	assert.Equal(t, `Update task "ONE"`, m.UndoDescription())
	afterAll := b.Tasks()

	for m.CanUndo() {
		require.NoError(t, m.Undo())
	}
	assert.Equal(t, initial, b.Tasks())

	for m.CanRedo() {
		require.NoError(t, m.Redo())
	}
	assert.Equal(t, afterAll, b.Tasks())
}

func TestDeleteTask_RestoresPosition(t *testing.T) {
	b := New(mk("1", "one"), mk("2", "two"), mk("3", "three"))
	del := NewDeleteTask(b, "2")
	assert.Equal(t, "Delete task 2", del.Description())

	require.NoError(t, del.Execute())
	assert.Equal(t, `Delete task "two"`, del.Description())
	assert.Equal(t, KindDelete, del.Kind())

	require.NoError(t, del.Undo())
	assert.Equal(t, []string{"1", "2", "3"}, ids(b.Tasks()))
}

func TestCommands_FailureLeavesBoard(t *testing.T) {
	b := New(mk("1", "one"))
	m := command.NewManager()

	err := m.ExecuteCommand(NewDeleteTask(b, "missing"))
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
	err = m.ExecuteCommand(NewAddTask(b, mk("1", "dup")))
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))
	err = m.ExecuteCommand(NewUpdateTask(b, mk("missing", "x")))
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	assert.False(t, m.CanUndo())
	assert.Equal(t, []string{"1"}, ids(b.Tasks()))
}

func TestBatch(t *testing.T) {
	b := New(mk("1", "one"))
	batch := NewBatch(
		NewAddTask(b, mk("2", "two")),
		NewAddTask(b, mk("3", "three")),
		NewDeleteTask(b, "1"),
	)
	assert.Equal(t, KindBatch, batch.Kind())
	assert.Equal(t, 3, batch.Len())
	assert.Equal(t, `Batch of 3: Add task "two", Add task "three", Delete task 1`, batch.Description())

	require.NoError(t, batch.Execute())
	assert.Equal(t, []string{"2", "3"}, ids(b.Tasks()))

	require.NoError(t, batch.Undo())
	assert.Equal(t, []string{"1"}, ids(b.Tasks()))
}

func TestBatch_RollsBackOnFailure(t *testing.T) {
	b := New(mk("1", "one"))
	batch := NewBatch(
		NewAddTask(b, mk("2", "two")),
		NewDeleteTask(b, "1"),
		NewAddTask(b, mk("2", "dup")),
	)
	err := batch.Execute()
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))
	assert.Equal(t, []string{"1"}, ids(b.Tasks()))
	assert.Equal(t, "one", b.Tasks()[0].Title)
}
