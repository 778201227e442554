package render_test

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fractalzoo/internal/render"
)

type countingListener struct {
	mu        sync.Mutex
	requested int
	completed []time.Duration
}

func (c *countingListener) OnRenderRequested() {
	c.mu.Lock()
	c.requested++
	c.mu.Unlock()
}

func (c *countingListener) OnRenderComplete(d time.Duration) {
	c.mu.Lock()
	c.completed = append(c.completed, d)
	c.mu.Unlock()
}

func (c *countingListener) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requested, len(c.completed)
}

func fill(color uint32) render.DrawFunc {
	return func(buf []uint32, w, h int) error {
		for i := range buf {
			buf[i] = color
		}
		return nil
	}
}

var _ = Describe("Synchronizer", func() {
	var (
		ctx      context.Context
		listener *countingListener
		s        *render.Synchronizer
	)

	BeforeEach(func() {
		ctx = context.Background()
		listener = &countingListener{}
		s = render.NewSynchronizer(listener)
	})

	It("notifies exactly once per cycle", func() {
		Expect(s.Draw(ctx, 4, 3, fill(0xff112233))).To(Succeed())
		Expect(s.Draw(ctx, 4, 3, fill(0xff445566))).To(Succeed())

		req, done := listener.counts()
		Expect(req).To(Equal(2))
		Expect(done).To(Equal(2))
		for _, d := range listener.completed {
			Expect(d).To(BeNumerically(">=", 0))
		}
	})

	It("publishes the rendered buffer", func() {
		Expect(s.Draw(ctx, 4, 3, fill(0xff112233))).To(Succeed())
		buf, w, h := s.Snapshot()
		Expect(w).To(Equal(4))
		Expect(h).To(Equal(3))
		Expect(buf).To(HaveLen(12))
		Expect(buf).To(HaveEach(uint32(0xff112233)))

		img := s.Image()
		r, g, b, a := img.At(2, 1).RGBA()
		Expect([]uint32{r >> 8, g >> 8, b >> 8, a >> 8}).To(Equal([]uint32{0x11, 0x22, 0x33, 0xff}))
	})

	It("reallocates on a size change and keeps the previous frame otherwise", func() {
		Expect(s.Draw(ctx, 2, 2, fill(0xff0000ff))).To(Succeed())

		var seen []uint32
		Expect(s.Draw(ctx, 2, 2, func(buf []uint32, w, h int) error {
			seen = append([]uint32(nil), buf...)
			return nil
		})).To(Succeed())
		Expect(seen).To(HaveEach(uint32(0xff0000ff)))

		Expect(s.Draw(ctx, 3, 1, func(buf []uint32, w, h int) error {
			seen = append([]uint32(nil), buf...)
			return nil
		})).To(Succeed())
		Expect(seen).To(Equal([]uint32{0, 0, 0}))
		w, h := s.Size()
		Expect([]int{w, h}).To(Equal([]int{3, 1}))
		Expect(s.Image().Bounds()).To(Equal(image.Rect(0, 0, 3, 1)))
	})

	It("drops a second draw while one is in flight", func() {
		started := make(chan struct{})
		release := make(chan struct{})
		var firstErr error
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer GinkgoRecover()
			defer wg.Done()
			firstErr = s.Draw(ctx, 2, 2, func(buf []uint32, w, h int) error {
				close(started)
				<-release
				return nil
			})
		}()

		Eventually(started).Should(BeClosed())
		Expect(s.InFlight()).To(BeTrue())

		err := s.Draw(ctx, 2, 2, fill(0xffffffff))
		Expect(err).To(MatchError(render.ErrRenderInFlight))
		req, done := listener.counts()
		Expect(req).To(Equal(1))
		Expect(done).To(Equal(0))

		close(release)
		wg.Wait()
		Expect(firstErr).NotTo(HaveOccurred())
		Expect(s.InFlight()).To(BeFalse())
		_, done = listener.counts()
		Expect(done).To(Equal(1))
	})

	It("does not start a cycle for a cancelled context", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		Expect(s.Draw(cctx, 2, 2, fill(0))).To(MatchError(context.Canceled))
		req, _ := listener.counts()
		Expect(req).To(BeZero())
	})

	It("rejects empty surfaces", func() {
		Expect(s.Draw(ctx, 0, 5, fill(0))).To(MatchError(render.ErrInvalidSize))
	})

	It("keeps the previous frame when the kernel fails but still completes", func() {
		Expect(s.Draw(ctx, 2, 1, fill(0xff00ff00))).To(Succeed())
		boom := errors.New("boom")
		Expect(s.Draw(ctx, 2, 1, func(buf []uint32, w, h int) error {
			buf[0] = 0xffffffff
			return boom
		})).To(MatchError(boom))

		buf, _, _ := s.Snapshot()
		Expect(buf).To(HaveEach(uint32(0xff00ff00)))
		req, done := listener.counts()
		Expect(req).To(Equal(2))
		Expect(done).To(Equal(2))
	})

	It("composites onto a destination image", func() {
		Expect(s.Draw(ctx, 3, 3, fill(0xffabcdef))).To(Succeed())
		dst := image.NewRGBA(image.Rect(0, 0, 3, 3))
		s.Composite(dst)
		Expect(dst.Pix[0:4]).To(Equal([]uint8{0xab, 0xcd, 0xef, 0xff}))
	})

	It("shifts the image for a gesture preview", func() {
		Expect(s.Draw(ctx, 4, 4, func(buf []uint32, w, h int) error {
			for i := range buf {
				buf[i] = 0xff000000
			}
			buf[0] = 0xffff0000
			return nil
		})).To(Succeed())

		p := s.Preview(1, 0, 1)
		Expect(p).NotTo(BeNil())
		r, _, _, _ := p.At(1, 0).RGBA()
		Expect(r >> 8).To(BeNumerically(">", 200))
		r, _, _, _ = p.At(0, 0).RGBA()
		Expect(r >> 8).To(BeNumerically("<", 50))
	})

	It("returns nothing before the first draw", func() {
		Expect(s.Image()).To(BeNil())
		Expect(s.Preview(0, 0, 1)).To(BeNil())
	})
})

var _ = Describe("PreviewTransform", func() {
	It("is the identity for an idle gesture", func() {
		m := render.PreviewTransform(100, 50, 0, 0, 1)
		Expect(m[0]).To(Equal(1.0))
		Expect(m[2]).To(Equal(0.0))
		Expect(m[4]).To(Equal(1.0))
		Expect(m[5]).To(Equal(0.0))
	})

	It("keeps the center fixed while scaling", func() {
		m := render.PreviewTransform(100, 50, 0, 0, 2)
		x := m[0]*50 + m[1]*25 + m[2]
		y := m[3]*50 + m[4]*25 + m[5]
		Expect(x).To(Equal(50.0))
		Expect(y).To(Equal(25.0))
	})
})

var _ = Describe("Listeners", func() {
	It("fans out in order", func() {
		var calls []string
		ls := render.Listeners{
			render.ListenerFuncs{Requested: func() { calls = append(calls, "a") }},
			render.ListenerFuncs{
				Requested: func() { calls = append(calls, "b") },
				Complete:  func(time.Duration) { calls = append(calls, "b done") },
			},
		}
		ls.OnRenderRequested()
		ls.OnRenderComplete(time.Millisecond)
		Expect(calls).To(Equal([]string{"a", "b", "b done"}))
	})
})
