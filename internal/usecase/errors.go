package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"backoffice/internal/config"

	"github.com/sirupsen/logrus"
)

// エラーの種類。呼び出し元には Kind + メッセージの形で安定して返す。
type ErrorKind string

const (
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindInvalidArgument   ErrorKind = "INVALID_ARGUMENT"
	KindInsufficientStock ErrorKind = "INSUFFICIENT_STOCK"
	KindInvalidTransition ErrorKind = "INVALID_TRANSITION"
	KindConflict          ErrorKind = "CONFLICT"
	KindUnauthorized      ErrorKind = "UNAUTHORIZED"
	KindInternal          ErrorKind = "INTERNAL"
)

type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewError(kind ErrorKind, message string) error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

func Errorf(kind ErrorKind, format string, args ...any) error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// internalErrorは想定外のrepositoryエラー用。
// 原因はログに残し、呼び出し元には詳細を返さない。
func internalError(logger *logrus.Logger, moduleName string, funcName string, err error) error {
	config.LogError(logger, moduleName, funcName, "repository error", nil, err)
	return NewError(KindInternal, "db error")
}

// HTTPStatusはhandler層で使うステータスコード。
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindInsufficientStock, KindInvalidTransition, KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
