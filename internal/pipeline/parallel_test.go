package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruspass-tech/ruspass/internal/document"
	"github.com/ruspass-tech/ruspass/internal/ocr"
	"github.com/ruspass-tech/ruspass/internal/testutil"
)

type countingCallback struct {
	mu        sync.Mutex
	starts    int
	total     int
	progress  []int
	completes int
	errors    int
}

func (c *countingCallback) OnStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts++
	c.total = total
}

func (c *countingCallback) OnProgress(current, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress = append(c.progress, current)
}

func (c *countingCallback) OnComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completes++
}

func (c *countingCallback) OnError(current int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors++
}

// writePages saves n single-page PNGs with distinct widths so a fake
// backend can tell them apart.
func writePages(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		paths[i] = filepath.Join(dir, fmt.Sprintf("page%02d.png", i))
		testutil.SaveImage(t, testutil.CreateTestImage(100+10*i, 60, color.White), paths[i])
	}
	return paths
}

func TestProcessFilesParallel_PreservesOrder(t *testing.T) {
	const n = 5
	paths := writePages(t, n)

	p := buildPipeline(t, NewBuilder().
		WithBackends(&fakeBackend{name: "fake", fn: func(img image.Image) (ocr.Result, error) {
			page := (img.Bounds().Dx() - 100) / 10
			return ocr.Result{
				Text:       fmt.Sprintf("ДОКУМЕНТ СТРАНИЦА %d ПРОВЕРКА", page),
				Confidence: 0.85,
			}, nil
		}}).
		WithPreprocess(false).
		WithVerticalDetection(false))

	results, err := p.ProcessFilesParallel(context.Background(), paths, ParallelConfig{MaxWorkers: 3})
	require.NoError(t, err)
	require.Len(t, results, n)
	for i, res := range results {
		require.NotNil(t, res, "result %d", i)
		assert.Contains(t, res.Text, fmt.Sprintf("СТРАНИЦА %d", i))
	}
}

func TestProcessFilesParallel_ProgressCallback(t *testing.T) {
	const n = 5
	paths := writePages(t, n)
	cb := &countingCallback{}

	p := buildPipeline(t, NewBuilder().
		WithBackends(textBackend("fake", samplePassportText)).
		WithPreprocess(false).
		WithVerticalDetection(false))

	results, err := p.ProcessFilesParallel(context.Background(), paths, ParallelConfig{
		MaxWorkers:       2,
		ProgressCallback: cb,
	})
	require.NoError(t, err)
	require.Len(t, results, n)

	assert.Equal(t, 1, cb.starts)
	assert.Equal(t, n, cb.total)
	assert.Len(t, cb.progress, n)
	assert.Equal(t, n, cb.progress[n-1])
	assert.Equal(t, 1, cb.completes)
	assert.Zero(t, cb.errors)
}

func TestProcessGroupsParallel_MixedGroups(t *testing.T) {
	dir := t.TempDir()
	single := filepath.Join(dir, "single.png")
	testutil.SaveImage(t, testutil.CreateTestImage(100, 60, color.White), single)
	pageA := filepath.Join(dir, "group", "a.png")
	testutil.SaveImage(t, testutil.CreateTestImage(200, 120, color.White), pageA)
	pageB := filepath.Join(dir, "group", "b.png")
	testutil.SaveImage(t, testutil.CreateTestImage(300, 180, color.White), pageB)

	p := buildPipeline(t, NewBuilder().
		WithBackends(&fakeBackend{name: "fake", fn: func(img image.Image) (ocr.Result, error) {
			texts := map[int]string{
				100: "ДОКУМЕНТ ОДИН ПРОВЕРКА",
				200: samplePassportText,
				300: registrationPageText,
			}
			return ocr.Result{Text: texts[img.Bounds().Dx()], Confidence: 0.85}, nil
		}}).
		WithPreprocess(false).
		WithVerticalDetection(false))

	groups := [][]string{{single}, {pageA, pageB}}
	results, err := p.ProcessGroupsParallel(context.Background(), groups, ParallelConfig{MaxWorkers: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Contains(t, results[0].Text, "ДОКУМЕНТ ОДИН")
	// Second slot holds the merged two-page document.
	assert.Contains(t, results[1].Text, "ЦИЦАР")
	assert.Contains(t, results[1].Record.Fields.Get(document.FieldRegistrationAddress).Value, "МОСКВА")
}

func TestProcessGroupsParallel_NilCallbackIsSafe(t *testing.T) {
	paths := writePages(t, 2)

	p := buildPipeline(t, NewBuilder().
		WithBackends(textBackend("fake", samplePassportText)).
		WithPreprocess(false).
		WithVerticalDetection(false))

	groups := [][]string{{paths[0]}, {paths[1]}}
	results, err := p.ProcessGroupsParallel(context.Background(), groups, ParallelConfig{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		require.NotNil(t, res)
	}
}

func TestProcessFilesParallel_EmptyInput(t *testing.T) {
	p := buildPipeline(t, NewBuilder().
		WithBackends(textBackend("fake", samplePassportText)).
		WithVerticalDetection(false))

	results, err := p.ProcessFilesParallel(context.Background(), nil, DefaultParallelConfig())
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestProcessFilesParallel_CanceledContext(t *testing.T) {
	paths := writePages(t, 3)

	p := buildPipeline(t, NewBuilder().
		WithBackends(textBackend("fake", samplePassportText)).
		WithPreprocess(false).
		WithVerticalDetection(false))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ProcessFilesParallel(ctx, paths, DefaultParallelConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessFilesParallel_PerFileFailuresStayInRecords(t *testing.T) {
	paths := writePages(t, 2)
	paths = append(paths, "/nonexistent/missing.png")

	p := buildPipeline(t, NewBuilder().
		WithBackends(textBackend("fake", samplePassportText)).
		WithPreprocess(false).
		WithVerticalDetection(false))

	results, err := p.ProcessFilesParallel(context.Background(), paths, ParallelConfig{MaxWorkers: 2})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Empty(t, results[0].Record.Errors)
	assert.Empty(t, results[1].Record.Errors)
	assert.Contains(t, results[2].Record.Errors, "Не удалось загрузить изображение")
}
