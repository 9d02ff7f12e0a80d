package scanning

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubRecognizer struct {
	name    string
	text    string
	err     error
	delay   time.Duration
	ignore  bool
	doPanic bool
}

func (s *stubRecognizer) Name() string { return s.name }

func (s *stubRecognizer) Recognize(ctx context.Context, img Image) (Payload, error) {
	if s.doPanic {
		panic("boom")
	}
	if s.delay > 0 {
		if s.ignore {
			time.Sleep(s.delay)
		} else {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return Payload{}, ctx.Err()
			}
		}
	}
	if s.err != nil {
		return Payload{}, s.err
	}
	return Payload{Text: s.text, Confidence: Confidence(80)}, nil
}

func (s *stubRecognizer) Close() error { return nil }

var _ = Describe("FanOut", func() {
	var (
		recognizers []Recognizer
		timeout     time.Duration
		payloads    []Payload
	)

	BeforeEach(func() {
		timeout = time.Second
	})

	JustBeforeEach(func() {
		payloads = FanOut(context.Background(), recognizers, Image{Data: []byte("x"), ContentType: "image/png"}, timeout)
	})

	When("all providers succeed", func() {
		BeforeEach(func() {
			recognizers = []Recognizer{
				&stubRecognizer{name: SourceTesseract, text: "a"},
				&stubRecognizer{name: SourceGemini, text: "b"},
			}
		})

		It("should return one payload per provider in order", func() {
			Expect(payloads).To(HaveLen(2))
			Expect(payloads[0].Source).To(Equal(SourceTesseract))
			Expect(payloads[0].Text).To(Equal("a"))
			Expect(payloads[1].Source).To(Equal(SourceGemini))
			Expect(payloads[1].Text).To(Equal("b"))
		})

		It("should mark them ok", func() {
			Expect(payloads[0].OK).To(BeTrue())
			Expect(payloads[1].OK).To(BeTrue())
		})
	})

	When("one provider fails", func() {
		BeforeEach(func() {
			recognizers = []Recognizer{
				&stubRecognizer{name: SourceOCRSpace, err: errors.New("quota exceeded")},
				&stubRecognizer{name: SourceTesseract, text: "ok"},
			}
		})

		It("should convert the failure into an empty payload", func() {
			Expect(payloads[0].OK).To(BeFalse())
			Expect(payloads[0].Text).To(BeEmpty())
			Expect(payloads[0].Error).To(ContainSubstring("quota exceeded"))
		})

		It("should not affect the other provider", func() {
			Expect(payloads[1].OK).To(BeTrue())
			Expect(payloads[1].Text).To(Equal("ok"))
		})
	})

	When("a provider panics", func() {
		BeforeEach(func() {
			recognizers = []Recognizer{
				&stubRecognizer{name: SourceOllama, doPanic: true},
				&stubRecognizer{name: SourceTesseract, text: "ok"},
			}
		})

		It("should report the panic as an error", func() {
			Expect(payloads[0].OK).To(BeFalse())
			Expect(payloads[0].Error).To(ContainSubstring("panic"))
			Expect(payloads[1].OK).To(BeTrue())
		})
	})

	When("a provider ignores its deadline", func() {
		BeforeEach(func() {
			timeout = 50 * time.Millisecond
			recognizers = []Recognizer{
				&stubRecognizer{name: SourceGemini, text: "late", delay: 2 * time.Second, ignore: true},
				&stubRecognizer{name: SourceTesseract, text: "ok"},
			}
		})

		It("should give up on it at the timeout", func() {
			Expect(payloads[0].OK).To(BeFalse())
			Expect(payloads[0].Error).To(ContainSubstring("timed out"))
			Expect(payloads[0].Duration).To(BeNumerically("<", time.Second))
		})

		It("should still return the fast provider", func() {
			Expect(payloads[1].Text).To(Equal("ok"))
		})
	})
})
