package libemit

import (
	"context"
)

type (
	DialParamsGetter func(ctx context.Context) (DialParams, error)

	DialParamsRepo struct {
		logger logger
		getter DialParamsGetter
	}
)

func (r DialParamsRepo) Get(
	ctx context.Context,
) (params DialParams, err error) {
	params, err = r.getter(ctx)
	if err != nil {
		r.logger.Errorf("cannot fetch dial params: %s", err)
	}
	return
}

func NewDialParamsRepo(
	logger logger,
	getter DialParamsGetter,
) DialParamsRepo {
	return DialParamsRepo{getter: getter, logger: logger}
}

// NewStaticDialParamsRepo is a convenience for the common case of a fixed
// endpoint.
func NewStaticDialParamsRepo(logger logger, params DialParams) DialParamsRepo {
	return NewDialParamsRepo(logger, func(context.Context) (DialParams, error) {
		return params, nil
	})
}
