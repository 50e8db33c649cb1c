package proxy

import (
	"context"

	"github.com/sturdilythatch87/tari/monero/client/rpc"
	"github.com/sturdilythatch87/tari/utils"
)

// handleGetHeight holds the reported height at the last known auxiliary height while the
// auxiliary tip moves or after work for that height has already been submitted, so miners
// refresh their template when needed
func (s *Server) handleGetHeight(ctx context.Context, _ *request, resp *rpc.Response) (*rpc.Response, error) {
	doc, err := upstreamJSON(resp)
	if err != nil {
		return nil, err
	}
	if v, ok := doc["height"]; !ok || v == nil {
		return nil, errMissingHeight
	}

	current, err := s.baseNode.GetTipInfo(ctx)
	if err != nil {
		return nil, err
	}

	utils.Debugf("Proxy", "monero height = %v, aux height = %d", doc["height"], current)

	s.state.lock.Lock()
	defer s.state.lock.Unlock()

	suppress := false
	if known := s.state.lastKnownHeight; known.ok {
		if known.height != current {
			suppress = true
		} else if submitted := s.state.lastSubmittedHeight; submitted.ok && submitted.height >= known.height {
			utils.Debugf("Proxy", "already submitted for aux height %d", known.height)
			suppress = true
		}
		if suppress {
			doc["height"] = known.height
		}
	}
	s.state.lastKnownHeight.set(current)

	if !suppress {
		return resp, nil
	}

	s.metrics.HeightsSuppressed.Inc()
	return withJSONBody(resp, doc)
}
