package relay

import (
	"net/http"

	"github.com/httprelay/relaypoll/internal/types"
	"github.com/httprelay/relaypoll/internal/utils"
)

// Classify turns a finished request into the outcome the view renders.
//
// A request that never produced a status is a ServerError carrying whatever
// text is available. A 200 whose final URL contains marker is a result; a 200
// without it means the relay is still working. Any other status is a ServerError.
func Classify(resp types.Response, marker string) types.Outcome {
	if !resp.Complete() {
		body := resp.Body
		if body == "" && resp.Err != nil {
			body = resp.Err.Error()
		}
		return types.NewServerError(body)
	}

	if resp.StatusCode == http.StatusOK {
		id, found := utils.MarkerSuffix(resp.FinalURL, marker)
		if !found {
			return types.NewNetworkPending()
		}
		out := types.NewRedirected(id, resp.Body)
		out.ContentType = resp.ContentType
		return out
	}

	out := types.NewServerError(resp.Body)
	out.ContentType = resp.ContentType
	return out
}
