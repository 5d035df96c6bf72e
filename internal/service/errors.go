package service

import (
	"errors"
	"shikkha_backend/internal/util"

	"gorm.io/gorm"
)

// notFoundOr 将 gorm 的记录不存在转换为领域错误
func notFoundOr(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &util.NotFoundError{Entity: entity, ID: id}
	}
	return err
}
