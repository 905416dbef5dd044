package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	encoded := EncodeCursor(Cursor{CreatedAt: ts, ID: 42})

	decoded, err := ParseCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.True(t, decoded.CreatedAt.Equal(ts))
	assert.Equal(t, uint(42), decoded.ID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	cursor, err := ParseCursor("")
	require.NoError(t, err)
	assert.Nil(t, cursor)

	_, err = ParseCursor("not-base64!!")
	assert.Error(t, err)

	_, err = ParseCursor(EncodeCursor(Cursor{CreatedAt: time.Now()})) // zero id
	assert.Error(t, err)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestBuildPage(t *testing.T) {
	type row struct {
		id uint
		at time.Time
	}
	now := time.Now().UTC()
	rows := []row{{3, now}, {2, now}, {1, now}}
	key := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page := BuildPage(rows, 2, key)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)
	next, err := ParseCursor(page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next.ID)

	last := BuildPage(rows[:1], 2, key)
	assert.Len(t, last.Items, 1)
	assert.Empty(t, last.NextCursor)

	empty := BuildPage[row](nil, 2, key)
	assert.NotNil(t, empty.Items)
}
