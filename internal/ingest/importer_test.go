package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/spendify/constants"
	"github.com/joseph-ayodele/spendify/internal/async"
	"github.com/joseph-ayodele/spendify/internal/extract"
	"github.com/joseph-ayodele/spendify/internal/pipeline"
	"github.com/joseph-ayodele/spendify/internal/receipts"
)

type fakeProcessor struct {
	rec extract.Receipt
	err error
}

func (f fakeProcessor) Process(context.Context, string) (pipeline.Result, error) {
	if f.err != nil {
		return pipeline.Result{}, f.err
	}
	return pipeline.Result{Assembly: extract.Assembly{Receipt: f.rec}}, nil
}

type recordingCreator struct {
	mu   sync.Mutex
	reqs []receipts.CreateRequest
}

func (c *recordingCreator) Create(_ context.Context, req receipts.CreateRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = append(c.reqs, req)
	return "id-" + req.Filename, nil
}

func TestImporter_ImportFile(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "r.jpg"), "receipt")

	creator := &recordingCreator{}
	im := NewImporter(NewFSIngestor(t.TempDir(), quietLogger()), fakeProcessor{rec: extract.Receipt{
		Merchant: "ACME", Date: "12.03.2024", TotalAmount: "10.00", Tax: "1.00", Currency: constants.Euro,
	}}, creator, quietLogger())

	res, id, err := im.ImportFile(context.Background(), filepath.Join(src, "r.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "id-"+res.Filename, id)
	require.Len(t, creator.reqs, 1)
	assert.Equal(t, receipts.CreateRequest{
		Merchant: "ACME", Date: "12.03.2024", Total: "10.00", Tax: "1.00", Currency: "€",
		Filename: res.Filename, ImageURL: "/static/" + res.Filename,
	}, creator.reqs[0])

	// same content again is skipped
	res, id, err = im.ImportFile(context.Background(), filepath.Join(src, "r.jpg"))
	require.NoError(t, err)
	assert.True(t, res.Deduplicated)
	assert.Empty(t, id)
	assert.Len(t, creator.reqs, 1)
}

func TestImporter_EmptyMerchantBecomesUnknown(t *testing.T) {
	creator := &recordingCreator{}
	im := NewImporter(NewFSIngestor(t.TempDir(), quietLogger()), fakeProcessor{rec: extract.Receipt{Currency: constants.TurkishLira}}, creator, quietLogger())

	_, err := im.ProcessStored(context.Background(), "x.jpg")
	require.NoError(t, err)
	assert.Equal(t, constants.UnknownMerchant, creator.reqs[0].Merchant)
}

func TestImporter_ProcessError(t *testing.T) {
	creator := &recordingCreator{}
	im := NewImporter(NewFSIngestor(t.TempDir(), quietLogger()), fakeProcessor{err: errors.New("llm down")}, creator, quietLogger())

	_, err := im.ProcessStored(context.Background(), "x.jpg")
	assert.ErrorContains(t, err, "llm down")
	assert.Empty(t, creator.reqs)
}

func TestImporter_EnqueueDirectory(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.jpg"), "a")
	writeFile(t, filepath.Join(src, "b.png"), "b")
	writeFile(t, filepath.Join(src, "c.png"), "b")

	creator := &recordingCreator{}
	im := NewImporter(NewFSIngestor(t.TempDir(), quietLogger()), fakeProcessor{rec: extract.Receipt{Merchant: "M", Currency: constants.TurkishLira}}, creator, quietLogger())
	q := async.NewWorkerQueue(im.Handle, quietLogger(), async.WithWorkers(2))

	_, stats, err := im.EnqueueDirectory(context.Background(), q, src, true)
	require.NoError(t, err)
	q.Shutdown(context.Background())

	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Len(t, creator.reqs, 2)
	processed, failed := q.Stats()
	assert.Equal(t, int64(2), processed)
	assert.Zero(t, failed)
}
