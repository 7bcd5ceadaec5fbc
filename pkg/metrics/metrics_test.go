package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sidneyts/NOTICIAS/pkg/apperr"
)

func TestObserveRender(t *testing.T) {
	success := RenderTotal.WithLabelValues(KindPrimary, "success", "")
	failure := RenderTotal.WithLabelValues(KindDerived, "failure", string(apperr.CodeIO))
	frames := FramesTotal.WithLabelValues(KindPrimary)

	beforeOK := testutil.ToFloat64(success)
	beforeFail := testutil.ToFloat64(failure)
	beforeFrames := testutil.ToFloat64(frames)

	ObserveRender(KindPrimary, "HD", 300, 2*time.Second, nil)
	ObserveRender(KindDerived, "MUB-FOR-SP", 0, time.Second, apperr.IO(errors.New("disk"), "op", "write"))

	if got := testutil.ToFloat64(success) - beforeOK; got != 1 {
		t.Errorf("success delta = %v", got)
	}
	if got := testutil.ToFloat64(failure) - beforeFail; got != 1 {
		t.Errorf("failure delta = %v", got)
	}
	if got := testutil.ToFloat64(frames) - beforeFrames; got != 300 {
		t.Errorf("frames delta = %v", got)
	}
}
