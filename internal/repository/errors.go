package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrMessageNotFound      = errors.New("MESSAGE_NOT_FOUND")
	ErrMessageDuplicate     = errors.New("MESSAGE_DUPLICATE")
	ErrConversationNotFound = errors.New("CONVERSATION_NOT_FOUND")
	ErrMetricsNotFound      = errors.New("METRICS_NOT_FOUND")
	ErrNoRowsAffected       = errors.New("NO_ROWS_AFFECTED")
)

const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
