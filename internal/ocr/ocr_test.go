package ocr

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/spendify/internal/common"
)

type call struct {
	name string
	args []string
}

type stubRunner struct {
	calls  []call
	stdout map[string]string // keyed by last arg
	err    error
}

func (s *stubRunner) Run(_ context.Context, c Command) (Output, error) {
	s.calls = append(s.calls, call{name: c.Name, args: c.Args})
	if s.err != nil {
		return Output{Stderr: []byte("tesseract: cannot open")}, s.err
	}
	return Output{Stdout: []byte(s.stdout[c.Args[len(c.Args)-1]])}, nil
}

const receiptText = "MIGROS\t TICARET\r\n\r\n\r\n\r\n12.04.2023   14:32\n-----\nTOPLAM  *1.234,56\nKDV %20  205,76   \n"

func TestExtract_Image(t *testing.T) {
	r := &stubRunner{stdout: map[string]string{"6": receiptText}}
	e := NewExtractor(Config{Tesseract: "/usr/bin/tesseract", PSM: 6}, nil, WithRunner(r))

	res, err := e.Extract(context.Background(), "/tmp/receipt.JPG")
	require.NoError(t, err)

	require.Len(t, r.calls, 1)
	assert.Equal(t, "/usr/bin/tesseract", r.calls[0].name)
	assert.Equal(t, []string{"/tmp/receipt.JPG", "stdout", "-l", "eng", "--psm", "6"}, r.calls[0].args)
	assert.Equal(t, "MIGROS TICARET\n\n12.04.2023 14:32\n\nTOPLAM *1.234,56\nKDV %20 205,76", res.Text)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, "eng", res.Language)
	assert.InDelta(t, 0.7, res.Confidence, 1e-6)
}

func TestExtract_TSVConfidence(t *testing.T) {
	tsv := strings.Join([]string{
		"level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext",
		"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t",
		"5\t1\t1\t1\t1\t1\t10\t10\t40\t12\t90\tMIGROS",
		"5\t1\t1\t1\t1\t2\t60\t10\t40\t12\t70\tTOPLAM",
	}, "\n")
	r := &stubRunner{stdout: map[string]string{"eng": "x", "tsv": tsv}}
	e := NewExtractor(Config{EnableTSVConfidence: true}, nil, WithRunner(r))

	res, err := e.Extract(context.Background(), "r.png")
	require.NoError(t, err)
	require.Len(t, r.calls, 2)
	assert.Equal(t, "tsv", r.calls[1].args[len(r.calls[1].args)-1])
	// 0.7*0.8 + 0.3*0.2
	assert.InDelta(t, 0.62, res.Confidence, 1e-6)
}

func TestExtract_Unsupported(t *testing.T) {
	r := &stubRunner{}
	e := NewExtractor(Config{}, nil, WithRunner(r))

	_, err := e.Extract(context.Background(), "invoice.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnsupported)
	assert.Empty(t, r.calls)
}

func TestExtract_RunnerFailure(t *testing.T) {
	r := &stubRunner{err: errors.New("exit status 1")}
	e := NewExtractor(Config{}, nil, WithRunner(r))

	res, err := e.Extract(context.Background(), "r.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract")
	assert.Equal(t, []string{"tesseract: cannot open"}, res.Warnings)
}

func TestNormalize_KeepsDigits(t *testing.T) {
	assert.Equal(t, "01.01.2024 TOPLAM 05,00", Normalize("01.01.2024  TOPLAM\t05,00  "))
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "a\n\nb", Normalize("a\f\n\n\nb"))
}

func TestMeanTSVConfidence_NoWords(t *testing.T) {
	assert.Zero(t, meanTSVConfidence("level\tconf\n"))
}

func TestTailBuffer_KeepsEnd(t *testing.T) {
	b := &tailBuffer{max: 5}
	n, err := b.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, _ = b.Write([]byte("defg"))
	assert.Equal(t, "cdefg", string(b.buf))
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "tesseract r.png stdout", Command{Name: "tesseract", Args: []string{"r.png", "stdout"}}.String())
}
