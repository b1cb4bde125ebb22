package apivehiclesv1

import "errors"

var ErrDatasetTooLarge = errors.New("dataset too large")
