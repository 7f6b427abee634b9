// internal/browser/session/locate.go
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/element"
	"github.com/xkilldash9x/steadyhand/internal/wait"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// markAttr tags the nodes matched by one Locate call so they can be fetched as
// DOM nodes with a single CSS query.
const markAttr = "data-steadyhand-locate"

// locateJS marks every element below root matching the locator and mode. It
// returns {stale, error, count}.
const locateJS = `function(root, strategy, value, token, mode) {
  if (!root || (root.nodeType === 1 && !root.isConnected)) return {stale: true};
  const doc = root.ownerDocument || root;
  const visible = (el) => {
    if (!el.isConnected || el.getClientRects().length === 0) return false;
    for (let p = el; p && p.nodeType === 1; p = p.parentElement) {
      const s = getComputedStyle(p);
      if (s.display === 'none' || s.visibility === 'hidden' || s.visibility === 'collapse') return false;
    }
    return true;
  };
  const enabled = (el) => !el.disabled && el.getAttribute('aria-disabled') !== 'true' && !el.closest('fieldset[disabled]');
  const text = (el) => (el.innerText || el.textContent || '').replace(/\s+/g, ' ').trim();
  let found = [];
  try {
    switch (strategy) {
    case 'css': found = Array.from(root.querySelectorAll(value)); break;
    case 'id': found = Array.from(root.querySelectorAll('[id="' + CSS.escape(value) + '"]')); break;
    case 'name': found = Array.from(root.querySelectorAll('[name="' + CSS.escape(value) + '"]')); break;
    case 'class': found = Array.from(root.querySelectorAll('.' + CSS.escape(value.trim()))); break;
    case 'tag': found = Array.from(root.querySelectorAll(value.trim())); break;
    case 'link': found = Array.from(root.querySelectorAll('a')).filter(a => text(a) === value.replace(/\s+/g, ' ').trim()); break;
    case 'partial_link': found = Array.from(root.querySelectorAll('a')).filter(a => text(a).includes(value)); break;
    case 'xpath': {
      const r = doc.evaluate(value, root, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
      for (let i = 0; i < r.snapshotLength; i++) {
        const n = r.snapshotItem(i);
        if (n.nodeType === 1 && n !== root && (root.nodeType === 9 || root.contains(n))) found.push(n);
      }
      break;
    }
    default: return {error: 'unsupported locator strategy ' + strategy};
    }
  } catch (e) {
    return {error: String(e && e.message || e)};
  }
  if (mode === 'visible') found = found.filter(visible);
  if (mode === 'clickable') found = found.filter(el => visible(el) && enabled(el));
  found.forEach(el => el.setAttribute('` + markAttr + `', token));
  return {count: found.length};
}`

const unmarkJS = `document.querySelectorAll('[` + markAttr + `="%s"]').forEach(el => el.removeAttribute('` + markAttr + `'))`

type locateResult struct {
	Stale bool   `json:"stale"`
	Error string `json:"error"`
	Count int    `json:"count"`
}

// Locate implements element.Driver.
func (s *Session) Locate(ctx context.Context, scope element.Node, loc schemas.Locator, mode schemas.Mode) ([]element.Node, error) {
	var root *cdp.Node
	if scope != nil {
		n, ok := scope.(*Node)
		if !ok || n.session != s {
			return nil, fmt.Errorf("scope %s does not belong to session %s", scope.ID(), s.id)
		}
		root = n.node
	}

	token := uuid.NewString()
	var res locateResult
	var nodes []*cdp.Node
	err := s.RunActions(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := runLocateJS(ctx, root, loc, token, mode, &res); err != nil {
			return err
		}
		if res.Stale || res.Error != "" || res.Count == 0 {
			return nil
		}
		return chromedp.Nodes(fmt.Sprintf(`[%s="%s"]`, markAttr, token), &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)).Do(ctx)
	}))
	if res.Count > 0 {
		if uerr := s.RunBackgroundActions(ctx, chromedp.Evaluate(fmt.Sprintf(unmarkJS, token), nil)); uerr != nil {
			s.logger.Debug("Failed to clear locate marks.", zap.Error(uerr))
		}
	}
	if err != nil {
		return nil, classify(err)
	}
	if res.Stale {
		return nil, element.ErrStaleElement
	}
	if res.Error != "" {
		return nil, wait.Structural("locate "+loc.String(), errors.New(res.Error))
	}

	out := make([]element.Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &Node{session: s, node: n})
	}
	return out, nil
}

func runLocateJS(ctx context.Context, root *cdp.Node, loc schemas.Locator, token string, mode schemas.Mode, res *locateResult) error {
	args := []any{string(loc.Strategy), loc.Value, token, mode.String()}
	if root == nil {
		encoded, err := json.Marshal(args)
		if err != nil {
			return err
		}
		// Splice the JSON array in as the trailing call arguments.
		script := fmt.Sprintf("(%s)(document, %s)", locateJS, strings.TrimSuffix(strings.TrimPrefix(string(encoded), "["), "]"))
		return chromedp.Evaluate(script, res).Do(ctx)
	}
	fn := "function(strategy, value, token, mode) { return (" + locateJS + ")(this, strategy, value, token, mode); }"
	return chromedp.CallFunctionOnNode(ctx, root, fn, res, args...)
}

// classify maps protocol errors about vanished nodes to element.ErrStaleElement.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, s := range staleMessages {
		if strings.Contains(msg, s) {
			return fmt.Errorf("%w: %v", element.ErrStaleElement, err)
		}
	}
	return err
}

var staleMessages = []string{
	"no node with given id",
	"could not find node with given id",
	"node is detached",
	"node with given id does not belong to the document",
	"cannot find context with specified id",
}
