package mysql

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/schema"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	d := New()
	tests := []struct {
		err  error
		want common.ErrorClass
	}{
		{&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, common.ClassDuplicate},
		{fmt.Errorf("wrapped: %w", &mysql.MySQLError{Number: 1452}), common.ClassConstraint},
		{&mysql.MySQLError{Number: 1064, Message: "syntax"}, common.ClassOther},
		{mysql.ErrInvalidConn, common.ClassConnection},
		{fmt.Errorf("boom"), common.ClassOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.Classify(tt.err), "%v", tt.err)
	}
}

func TestDSN(t *testing.T) {
	dsn, err := New().DSN(config.Store{Host: "db", Port: 3306, User: "root", Password: "pw", Database: "mfg_master"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "root:pw@tcp(db:3306)/mfg_master"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
}

func TestColumnTypes(t *testing.T) {
	d := New()
	assert.Equal(t, "VARCHAR(16)", d.ColumnType(schema.Column{Type: schema.Text, Size: 16}))
	assert.Equal(t, "VARCHAR(255)", d.ColumnType(schema.Column{Type: schema.Text}))
	assert.Contains(t, d.ColumnType(schema.Column{Type: schema.Serial}), "AUTO_INCREMENT")
	assert.Equal(t, "`odd``name`", d.Quote("odd`name"))

	stmt, err := d.AddForeignKey("facility", "facility_manager_id", "employee", "employee_id")
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `facility` ADD CONSTRAINT `fk_facility_facility_manager_id` FOREIGN KEY (`facility_manager_id`) REFERENCES `employee` (`employee_id`)", stmt)
}
