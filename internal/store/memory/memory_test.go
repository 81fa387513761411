package memory

import (
	"testing"

	"github.com/sanspareilsmyn/kpilens/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, New())
}
