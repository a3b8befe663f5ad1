package env

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_GetStringOrDefault_Treats_Empty_As_Missing(t *testing.T) {
	// Arrange
	t.Setenv("CSV_IMPORT_TEST_STRING", "")

	// Act
	val := GetStringOrDefault("CSV_IMPORT_TEST_STRING", "fallback")

	// Assert
	require.Equal(t, "fallback", val)
}

func Test_GetIntOrDefault_Parses_Value(t *testing.T) {
	// Arrange
	t.Setenv("CSV_IMPORT_TEST_INT", " 8080 ")

	// Act
	val, err := GetIntOrDefault("CSV_IMPORT_TEST_INT", 4000)

	// Assert
	require.NoError(t, err)
	require.Equal(t, 8080, val)
}

func Test_GetIntOrDefault_Reports_Conversion_Failure(t *testing.T) {
	// Arrange
	t.Setenv("CSV_IMPORT_TEST_INT", "eighty")

	// Act
	_, err := GetIntOrDefault("CSV_IMPORT_TEST_INT", 4000)

	// Assert
	require.True(t, errors.Is(err, ErrConversionFailed))
	require.ErrorContains(t, err, "CSV_IMPORT_TEST_INT")
}

func Test_GetInt64OrDefault_Returns_Default_For_Missing_Key(t *testing.T) {
	// Act
	val, err := GetInt64OrDefault("CSV_IMPORT_TEST_MISSING", 42)

	// Assert
	require.NoError(t, err)
	require.Equal(t, int64(42), val)
}

func Test_GetBoolOrDefault_Parses_Value(t *testing.T) {
	// Arrange
	t.Setenv("CSV_IMPORT_TEST_BOOL", "false")

	// Act
	val, err := GetBoolOrDefault("CSV_IMPORT_TEST_BOOL", true)

	// Assert
	require.NoError(t, err)
	require.False(t, val)
}

func Test_GetListOrDefault_Splits_And_Trims(t *testing.T) {
	// Arrange
	t.Setenv("CSV_IMPORT_TEST_LIST", " http://a.test , ,http://b.test")

	// Act
	val := GetListOrDefault("CSV_IMPORT_TEST_LIST", []string{"*"})

	// Assert
	require.Equal(t, []string{"http://a.test", "http://b.test"}, val)
}
