package apivehiclesv1

import (
	"bytes"
	"context"
	"net/http"

	"github.com/fulldump/mpgfinder/service"
)

// export streams the whole filtered view as CSV. The window is ignored.
func export(ctx context.Context, w http.ResponseWriter, input *service.FindInput) error {

	// buffer so that a failing query can still be reported as JSON
	buf := &bytes.Buffer{}
	err := GetServicer(ctx).Export(buf, input)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="vehicles.csv"`)
	_, err = buf.WriteTo(w)
	return err
}
