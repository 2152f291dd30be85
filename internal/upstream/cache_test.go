package upstream

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unisphere/exam-gateway/internal/config"
)

func TestCachedExamProviderWithoutRedisPassesThrough(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"data":{"id":"exam-1","title":"Midterm","duration":30,"questions":[]}}`))
	})

	prov := NewCachedExamProvider(c, nil, &config.Config{ExamCacheTTL: time.Minute}, zerolog.Nop())

	for i := 0; i < 2; i++ {
		exam, err := prov.FetchExam(context.Background(), "tok", "exam-1")
		require.NoError(t, err)
		assert.Equal(t, "exam-1", exam.ID)
	}

	// No cache layer means every call reaches upstream.
	assert.Equal(t, int32(2), hits.Load())
	assert.NoError(t, prov.Invalidate(context.Background(), "exam-1"))
}
