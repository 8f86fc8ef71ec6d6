package repo

import (
	"context"
	"testing"

	"github.com/artmirror-io/artmirror/internal/modules/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestRunCreateAndList(t *testing.T) {
	r := NewIngestRunRepo(newTestDB(t))

	run := &model.IngestRun{
		ID:       uuid.New(),
		Keyword:  "gundam mecha",
		Page:     1,
		Inserted: 58,
		Failed:   2,
		Meta:     map[string]interface{}{"items": 60},
	}
	require.NoError(t, r.Create(context.Background(), run))

	runs, err := r.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, "gundam mecha", runs[0].Keyword)
	assert.Equal(t, 58, runs[0].Inserted)
	assert.Equal(t, 2, runs[0].Failed)
}
