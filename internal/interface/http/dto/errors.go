package dto

import apperrors "github.com/xiebiao/library/pkg/errors"

// ErrMalformedRequest 请求体无法解析
var ErrMalformedRequest = apperrors.ErrBindError.WithMessage("Malformed request")
