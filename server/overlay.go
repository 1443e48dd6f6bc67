package server

import (
	"encoding/json"
	"html/template"
	"strings"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
)

// overlayPayload is the script payload embedded in staged-workflow responses.
// Phase continuity is carried entirely in the URL the script builds from
// this payload; the server holds no cross-phase state.
type overlayPayload struct {
	URL             string `json:"url"`
	Stage           string `json:"stage"`
	TargetRevID     int64  `json:"targetRevId"`
	PurgeURL        string `json:"purgeUrl"`
	AdvanceDelayMS  int    `json:"advanceDelayMs"`
	RedirectDelayMS int    `json:"redirectDelayMs"`
	CompleteDelayMS int    `json:"completeDelayMs"`
}

// Overlay markup and driver script. Phase 1 starts at 0%, advances after a
// short delay, then navigates to the same URL with syncstage=2 and the
// resolved target revision appended. Phase 2 jumps to 85%, marks completion
// after a delay, POSTs one purge call, and navigates to the plain document
// URL whether the purge succeeds or not.
const overlayTemplateText = `
<div id="revsync-overlay" style="position:fixed;top:0;left:0;right:0;bottom:0;background:rgba(0,0,0,0.55);z-index:1000;display:flex;align-items:center;justify-content:center;">
  <div style="background:#fff;border-radius:6px;padding:24px 32px;min-width:320px;text-align:center;font-family:sans-serif;">
    <div id="revsync-progress-label" style="margin-bottom:12px;color:#333;">Synchronizing approved revision&hellip;</div>
    <div style="background:#eee;border-radius:4px;height:14px;overflow:hidden;">
      <div id="revsync-progress-bar" style="background:#1565c0;height:14px;width:0%;transition:width 0.3s;"></div>
    </div>
  </div>
</div>
<script>
(function () {
  var p = {{.PayloadJSON}};
  var bar = document.getElementById('revsync-progress-bar');
  var label = document.getElementById('revsync-progress-label');
  function setProgress(pct, text, color) {
    bar.style.width = pct + '%';
    if (color) { bar.style.background = color; }
    if (text) { label.textContent = text; }
  }
  function navigate(url) { window.location = url; }
  if (p.stage === "1") {
    setProgress(0, 'Starting sync…');
    setTimeout(function () {
      setProgress(40, 'Preparing reconciliation…');
      setTimeout(function () {
        var sep = p.url.indexOf('?') === -1 ? '?' : '&';
        navigate(p.url + sep + 'syncstage=2&revsync=' + p.targetRevId);
      }, p.redirectDelayMs);
    }, p.advanceDelayMs);
  } else {
    setProgress(85, 'Reconciling semantic data…');
    setTimeout(function () {
      setProgress(100, 'Sync Complete', '#2e7d32');
      var done = function () { navigate(p.url); };
      fetch(p.purgeUrl, { method: 'POST' }).then(done, done);
    }, p.completeDelayMs);
  }
})();
</script>
`

var overlayTemplate = template.Must(
	template.New("overlay").Parse(overlayTemplateText),
)

// renderOverlay produces the overlay markup + script for one phase
func renderOverlay(payload overlayPayload) (string, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal overlay payload")
	}

	var sb strings.Builder
	err = overlayTemplate.Execute(&sb, struct {
		PayloadJSON template.JS
	}{
		PayloadJSON: template.JS(payloadJSON),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to render overlay")
	}

	return sb.String(), nil
}
