package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/access-control/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
)

type countingCleaner struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (c *countingCleaner) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	c.calls.Add(1)
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
		}
	}
	if c.err != nil {
		return 0, c.err
	}
	return 3, nil
}

var _ = Describe("Sweeper", func() {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	It("rejects a malformed schedule", func() {
		_, err := auth.NewSweeper(&countingCleaner{}, "every tuesday", quiet)
		Expect(err).To(MatchError(ContainSubstring("invalid cleanup schedule")))
	})

	It("reports what a single sweep removed", func() {
		s, err := auth.NewSweeper(&countingCleaner{}, "@every 1h", quiet)
		Expect(err).NotTo(HaveOccurred())

		n, err := s.RunOnce(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(3)))
	})

	It("surfaces cleanup failures", func() {
		s, err := auth.NewSweeper(&countingCleaner{err: errors.New("db down")}, "@every 1h", quiet)
		Expect(err).NotTo(HaveOccurred())

		_, err = s.RunOnce(context.Background())
		Expect(err).To(MatchError("db down"))
	})

	It("runs on its schedule until stopped", func() {
		cleaner := &countingCleaner{}
		s, err := auth.NewSweeper(cleaner, "@every 1s", quiet)
		Expect(err).NotTo(HaveOccurred())

		s.Start()
		Eventually(cleaner.calls.Load, 3*time.Second, 50*time.Millisecond).Should(BeNumerically(">=", 1))

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	})

	It("reports skipped overlapping runs through the service logger", func() {
		buf := gbytes.NewBuffer()
		lg := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		cleaner := &countingCleaner{block: make(chan struct{})}
		s, err := auth.NewSweeper(cleaner, "@every 1s", lg)
		Expect(err).NotTo(HaveOccurred())

		s.Start()
		Eventually(buf, 4*time.Second, 50*time.Millisecond).Should(gbytes.Say(`msg=skip component=cron`))
		Expect(cleaner.calls.Load()).To(Equal(int32(1)))

		close(cleaner.block)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	})
})
