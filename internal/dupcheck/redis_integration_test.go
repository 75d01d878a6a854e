//go:build integration

package dupcheck_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"registrar/internal/dupcheck"
	"registrar/internal/registration/models"
	"registrar/internal/registration/store"
	"registrar/pkg/certno"
	id "registrar/pkg/domain"
	"registrar/pkg/testutil/containers"
)

// countingFinder wraps a store and counts lookups so tests can tell cache
// hits from fall-throughs.
type countingFinder struct {
	inner dupcheck.NumberFinder
	calls atomic.Int32
}

func (f *countingFinder) FindByNumber(ctx context.Context, encoded string) (*models.Registration, error) {
	f.calls.Add(1)
	return f.inner.FindByNumber(ctx, encoded)
}

type RedisCheckerSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backing *store.InMemoryStore
	finder  *countingFinder
	checker *dupcheck.RedisChecker
}

func TestRedisCheckerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCheckerSuite))
}

func (s *RedisCheckerSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
}

func (s *RedisCheckerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.backing = store.NewInMemoryStore()
	s.finder = &countingFinder{inner: s.backing}
	s.checker = dupcheck.NewRedisChecker(s.redis.Client, s.finder)
}

func (s *RedisCheckerSuite) seed(ref string) *models.Registration {
	reference, err := id.ParseReference(ref)
	s.Require().NoError(err)
	reg, err := models.NewRegistration(id.NewRegistrationID(), reference, certno.Number{
		Book: "I", Volume: "1", VolumeLetter: "C", VolumeYear: "2024",
		Serial: "16", SerialYear: "2025", Page: "21",
	}, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.backing.Create(context.Background(), reg))
	return reg
}

func (s *RedisCheckerSuite) TestCachesAssignedNumbers() {
	ctx := context.Background()
	reg := s.seed("APP-2024-000123")
	other := id.Reference("APP-2024-000999")

	assigned, err := s.checker.IsAssigned(ctx, reg.Encoded, other)
	s.Require().NoError(err)
	s.True(assigned)
	s.Equal(int32(1), s.finder.calls.Load())

	// Second check is served from the assignment index.
	assigned, err = s.checker.IsAssigned(ctx, reg.Encoded, other)
	s.Require().NoError(err)
	s.True(assigned)
	s.Equal(int32(1), s.finder.calls.Load())
}

func (s *RedisCheckerSuite) TestDoesNotCacheUnassignedNumbers() {
	ctx := context.Background()
	ref := id.Reference("APP-2024-000123")

	assigned, err := s.checker.IsAssigned(ctx, "WBMSDBRWI1C202416202521", ref)
	s.Require().NoError(err)
	s.False(assigned)
	s.Equal(int32(1), s.finder.calls.Load())

	// Unassigned results must not stick: the number could be assigned any
	// moment, so every check goes back to the store.
	assigned, err = s.checker.IsAssigned(ctx, "WBMSDBRWI1C202416202521", ref)
	s.Require().NoError(err)
	s.False(assigned)
	s.Equal(int32(2), s.finder.calls.Load())
}

func (s *RedisCheckerSuite) TestSameReferenceIsNotADuplicate() {
	ctx := context.Background()
	reg := s.seed("APP-2024-000123")

	// Prime the cache, then check as the owner.
	_, err := s.checker.IsAssigned(ctx, reg.Encoded, id.Reference("APP-2024-000999"))
	s.Require().NoError(err)

	assigned, err := s.checker.IsAssigned(ctx, reg.Encoded, reg.Reference)
	s.Require().NoError(err)
	s.False(assigned)
}

func (s *RedisCheckerSuite) TestConcurrentChecksCollapse() {
	ctx := context.Background()
	reg := s.seed("APP-2024-000123")
	other := id.Reference("APP-2024-000999")
	const goroutines = 25

	var wg sync.WaitGroup
	var trues atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assigned, err := s.checker.IsAssigned(ctx, reg.Encoded, other)
			if err == nil && assigned {
				trues.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(goroutines), trues.Load())
	// Single flight plus the cache keep store traffic far below one call
	// per check. The exact count depends on scheduling; the bound is what
	// matters.
	s.LessOrEqual(s.finder.calls.Load(), int32(goroutines/2))
}
