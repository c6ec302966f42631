package invoice

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var (
	nowFunc  = time.Now   // mockable
	randIntn = lockedIntn // mockable

	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func lockedIntn(n int) int {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Intn(n)
}

// GenerateNumber returns a business invoice number, NFS-<year><5 random digits>.
// Uniqueness is only as good as the random suffix (1 in 90000 per year); the store's
// transaction_id constraint is what guarantees one invoice per transaction.
func GenerateNumber() string {
	return fmt.Sprintf("NFS-%04d%05d", nowFunc().Year(), 10000+randIntn(90000))
}
