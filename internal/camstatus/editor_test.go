package camstatus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afcommunity/fieldmap/internal/errors"
	"github.com/afcommunity/fieldmap/internal/logger"
)

type fakePersister struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakePersister) UpdateCameraStatus(_ context.Context, key, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key+"="+status)
	return f.err
}

type fakePatcher struct {
	statuses map[string]string
}

func (f *fakePatcher) PatchCameraStatus(key, status string) bool {
	if _, ok := f.statuses[key]; !ok {
		return false
	}
	f.statuses[key] = status
	return true
}

func newTestEditor(raw string, p *fakePersister, opts ...EditorOption) (*Editor, *fakePatcher) {
	patch := &fakePatcher{statuses: map[string]string{"A1-2024-01-01": raw}}
	opts = append(opts, WithLogger(logger.NewNopLogger()))
	return NewEditor("A1-2024-01-01", raw, p, patch, opts...), patch
}

func TestEditorSetKindClearsUnusedParts(t *testing.T) {
	t.Parallel()

	p := &fakePersister{}
	e, patch := newTestEditor("pull,4", p)
	assert.Equal(t, Status{Kind: KindPull, DaysAhead: 4}, e.Status())

	require.NoError(t, e.SetKind(t.Context(), KindSet))
	assert.Equal(t, Status{Kind: KindSet, DaysAhead: 4}, e.Status())

	require.NoError(t, e.SetKind(t.Context(), KindOther))
	assert.Equal(t, Status{Kind: KindOther}, e.Status())

	require.NoError(t, e.SetText(t.Context(), PhraseRetrieved))
	require.NoError(t, e.SetKind(t.Context(), KindPull))
	assert.Equal(t, Status{Kind: KindPull}, e.Status())

	assert.Equal(t, []string{
		"A1-2024-01-01=set,4",
		"A1-2024-01-01=",
		"A1-2024-01-01=" + PhraseRetrieved,
		"A1-2024-01-01=pull,0",
	}, p.calls)
	assert.Equal(t, "pull,0", patch.statuses["A1-2024-01-01"])
}

func TestEditorSetDays(t *testing.T) {
	t.Parallel()

	p := &fakePersister{}
	e, patch := newTestEditor("set,1", p)

	require.NoError(t, e.SetDays(t.Context(), 9))
	require.NoError(t, e.SetDays(t.Context(), -2))
	assert.Equal(t, Status{Kind: KindSet}, e.Status())
	assert.Equal(t, []string{"A1-2024-01-01=set,9", "A1-2024-01-01=set,0"}, p.calls)
	assert.Equal(t, "set,0", patch.statuses["A1-2024-01-01"])

	require.NoError(t, e.SetText(t.Context(), PhraseLost))
	err := e.SetDays(t.Context(), 3)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
	assert.Len(t, p.calls, 3, "rejected edit is not persisted")
}

func TestEditorRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	p := &fakePersister{}
	e, _ := newTestEditor("set,1", p)

	err := e.SetKind(t.Context(), Kind("retired"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Empty(t, p.calls)
}

func TestEditorNonRevertingKeepsFailedEdit(t *testing.T) {
	t.Parallel()

	failure := errors.New(errors.NewStd("status 500")).Category(errors.CategoryRejected).Build()
	p := &fakePersister{err: failure}
	e, patch := newTestEditor("set,2", p)
	assert.Equal(t, OptimisticNonReverting, e.Policy())

	err := e.SetKind(t.Context(), KindPull)
	require.ErrorIs(t, err, failure)

	assert.Equal(t, Status{Kind: KindPull, DaysAhead: 2}, e.Status())
	assert.Equal(t, "pull,2", patch.statuses["A1-2024-01-01"])
}

func TestEditorRevertingRestoresPrevious(t *testing.T) {
	t.Parallel()

	p := &fakePersister{err: errors.NewStd("connection refused")}
	e, patch := newTestEditor("set,2", p, WithPolicy(OptimisticReverting))

	require.Error(t, e.SetDays(t.Context(), 10))
	assert.Equal(t, Status{Kind: KindSet, DaysAhead: 2}, e.Status())
	assert.Equal(t, "set,2", patch.statuses["A1-2024-01-01"])
}

func TestEditorWithoutRecordOrPersister(t *testing.T) {
	t.Parallel()

	e := NewEditor("Z9-2024-02-02", "", nil, &fakePatcher{statuses: map[string]string{}}, WithLogger(logger.NewNopLogger()))
	require.NoError(t, e.SetText(t.Context(), PhraseComplete))
	assert.Equal(t, Status{Kind: KindOther, Text: PhraseComplete}, e.Status())
}

func TestEditPolicyString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "optimistic-non-reverting", OptimisticNonReverting.String())
	assert.Equal(t, "optimistic-reverting", OptimisticReverting.String())
}
