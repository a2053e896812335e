package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netusage/internal/cache"
	"netusage/internal/core"
	"netusage/internal/source"
)

const csvData = "Ip-Mac,Start Date,Start Time,End Date,End Time,MB Consumption\n" +
	"a,2024-01-01,08:00,2024-01-01,09:00,500\n" +
	"a,2024-01-01,10:00,2024-01-01,11:00,300\n" +
	"a,2024-01-02,08:00,2024-01-02,09:00,200\n" +
	"a,2023-12-30,08:00,2023-12-30,09:00,abc\n" +
	"a,never,08:00,never,09:00,1\n"

type failingSource struct{ err error }

func (f failingSource) Name() string { return "broken" }
func (f failingSource) Kind() string { return "file" }
func (f failingSource) ReadRows(context.Context) (core.Table, error) {
	return core.Table{}, f.err
}

func TestLoad(t *testing.T) {
	sess, report, err := Load(context.Background(), source.Stream{Filename: "usage.csv", Data: []byte(csvData)})
	require.NoError(t, err)

	_, err = uuid.Parse(sess.ID)
	assert.NoError(t, err)
	assert.Equal(t, "usage.csv", sess.Source)
	assert.Equal(t, "upload", sess.SourceKind)
	assert.Equal(t, core.LoadReport{RowsRead: 5, RowsKept: 4, RowsDropped: 1, ZeroCoerced: 1}, report)
	assert.Equal(t, report, sess.Report)

	sel := sess.DefaultSelection(core.MB)
	assert.Equal(t, core.Selection{Year: 2024, Month: 1, Unit: core.MB}, sel)

	sum := sess.Summary(sel)
	assert.Equal(t, 1000.0, sum.MB.MonthlyTotal)
	assert.Equal(t, 500.0, sum.MB.MonthlyAvgDaily)
}

func TestLoad_Errors(t *testing.T) {
	boom := errors.New("disk on fire")
	_, _, err := Load(context.Background(), failingSource{err: boom})
	assert.ErrorIs(t, err, boom)

	_, report, err := Load(context.Background(), source.Stream{Data: []byte("Start Date,MB Consumption\nnope,1\n")})
	assert.ErrorIs(t, err, ErrNoValidRows)
	assert.Equal(t, 1, report.RowsDropped)

	_, _, err = Load(context.Background(), source.Stream{Data: []byte("Foo,Bar\n1,2\n")})
	assert.ErrorIs(t, err, core.ErrMissingColumn)

	_, _, err = Load(context.Background(), source.Stream{})
	assert.ErrorIs(t, err, source.ErrEmptyFile)
}

func TestResolve(t *testing.T) {
	sess, _, err := Load(context.Background(), source.Stream{Data: []byte(csvData)})
	require.NoError(t, err)

	got := sess.Resolve(core.Selection{Month: 12}, core.GB)
	assert.Equal(t, core.Selection{Year: 2024, Month: 12, Unit: core.GB}, got)

	got = sess.Resolve(core.Selection{Year: 2023, Unit: core.TB}, core.GB)
	assert.Equal(t, core.Selection{Year: 2023, Month: 12, Unit: core.TB}, got)

	got = sess.Resolve(core.Selection{Year: 2023, Month: 6}, core.GB)
	assert.Equal(t, core.Selection{Year: 2023, Month: 6, Unit: core.GB}, got)

	got = sess.Resolve(core.Selection{Year: 2019}, core.MB)
	assert.Equal(t, core.Selection{Year: 2019, Month: 1, Unit: core.MB}, got)
}

func TestStore(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time { mu.Lock(); defer mu.Unlock(); return now }
	advance := func(d time.Duration) { mu.Lock(); now = now.Add(d); mu.Unlock() }

	st := NewStore(time.Minute, 2, nil, cache.WithClock[*Session](clock))

	a := &Session{ID: "a"}
	b := &Session{ID: "b"}
	c := &Session{ID: "c"}
	st.Put(a)
	st.Put(b)

	got, ok := st.Get("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	st.Put(c) // evicts b
	_, ok = st.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, st.Len())

	advance(2 * time.Minute)
	assert.Equal(t, 2, st.Cleaner().CleanExpired())
	_, ok = st.Get("a")
	assert.False(t, ok)

	st.Put(a)
	st.Delete("a")
	_, ok = st.Get("a")
	assert.False(t, ok)
	_, ok = st.Get("")
	assert.False(t, ok)
}
