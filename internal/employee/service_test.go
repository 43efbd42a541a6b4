package employee_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"employee-service/internal/employee"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_CreateEmployee(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.service.CreateEmployee(ctx, validInput(t, "John Smith", "EMP001", 28))
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.True(t, strings.HasPrefix(created.Photo, "employee_photos/"))
		assert.True(t, strings.HasSuffix(created.Photo, ".png"))

		got, err := f.service.GetEmployeeByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)

		assert.Equal(t, []string{created.Photo}, f.storedPhotos(t))
		assert.Equal(t, []string{employee.EventCreated}, f.publisher.types())
		assert.Equal(t, []string{"EMP001"}, f.publisher.keys)
	})

	t.Run("MissingFields", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.CreateEmployee(ctx, employee.Input{})
		require.ErrorIs(t, err, employee.ErrInvalidInput)

		var verr *employee.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "This field is required.", verr.Fields["name"])
		assert.Equal(t, "This field is required.", verr.Fields["employee_id"])
		assert.Equal(t, "This field is required.", verr.Fields["age"])
		assert.Equal(t, "No file was submitted.", verr.Fields["photo"])
	})

	t.Run("TooLong", func(t *testing.T) {
		f := newFixture(t)

		in := validInput(t, strings.Repeat("x", 101), "EMP0000000001", 28)
		_, err := f.service.CreateEmployee(ctx, in)

		var verr *employee.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "Ensure this field has no more than 100 characters.", verr.Fields["name"])
		assert.Equal(t, "Ensure this field has no more than 10 characters.", verr.Fields["employee_id"])
		assert.Empty(t, f.storedPhotos(t))
	})

	t.Run("InvalidImage", func(t *testing.T) {
		f := newFixture(t)

		in := validInput(t, "John Smith", "EMP001", 28)
		in.Photo = &employee.Photo{Data: []byte("not an image")}
		_, err := f.service.CreateEmployee(ctx, in)

		var verr *employee.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields["photo"], "Upload a valid image.")
		assert.Len(t, verr.Fields, 1)
	})

	t.Run("DuplicateEmployeeID", func(t *testing.T) {
		f := newFixture(t)

		first, err := f.service.CreateEmployee(ctx, validInput(t, "John Smith", "EMP001", 28))
		require.NoError(t, err)

		_, err = f.service.CreateEmployee(ctx, validInput(t, "Someone Else", "EMP001", 40))
		assert.ErrorIs(t, err, employee.ErrDuplicateEmployeeID)

		all, err := f.service.GetAllEmployees(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "John Smith", all[0].Name)
		assert.Equal(t, []string{first.Photo}, f.storedPhotos(t))
	})

	t.Run("PublishFailureDoesNotFailRequest", func(t *testing.T) {
		f := newFixture(t)
		f.publisher.err = errors.New("broker down")

		_, err := f.service.CreateEmployee(ctx, validInput(t, "John Smith", "EMP001", 28))
		assert.NoError(t, err)
	})
}

func TestService_UpdateEmployee(t *testing.T) {
	ctx := context.Background()

	t.Run("FullUpdateReplacesPhoto", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.service.CreateEmployee(ctx, validInput(t, "John Smith", "EMP001", 28))
		require.NoError(t, err)
		oldPhoto := created.Photo

		updated, err := f.service.UpdateEmployee(ctx, created.ID, validInput(t, "John Smythe", "EMP101", 29))
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "John Smythe", updated.Name)
		assert.Equal(t, "EMP101", updated.EmployeeID)
		assert.Equal(t, 29, updated.Age)
		assert.NotEqual(t, oldPhoto, updated.Photo)

		assert.Equal(t, []string{updated.Photo}, f.storedPhotos(t))
		assert.Equal(t, []string{employee.EventCreated, employee.EventUpdated}, f.publisher.types())
	})

	t.Run("FullUpdateRequiresPhoto", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.service.CreateEmployee(ctx, validInput(t, "John Smith", "EMP001", 28))
		require.NoError(t, err)

		in := validInput(t, "John Smith", "EMP001", 30)
		in.Photo = nil
		_, err = f.service.UpdateEmployee(ctx, created.ID, in)

		var verr *employee.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "No file was submitted.", verr.Fields["photo"])
	})

	t.Run("PatchOnlySuppliedFields", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.service.CreateEmployee(ctx, validInput(t, "John Smith", "EMP001", 28))
		require.NoError(t, err)

		patched, err := f.service.PatchEmployee(ctx, created.ID, employee.Input{Age: intPtr(45)})
		require.NoError(t, err)
		assert.Equal(t, 45, patched.Age)
		assert.Equal(t, "John Smith", patched.Name)
		assert.Equal(t, "EMP001", patched.EmployeeID)
		assert.Equal(t, created.Photo, patched.Photo)
	})

	t.Run("PatchValidatesSuppliedFields", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.service.CreateEmployee(ctx, validInput(t, "John Smith", "EMP001", 28))
		require.NoError(t, err)

		_, err = f.service.PatchEmployee(ctx, created.ID, employee.Input{EmployeeID: strPtr("EMP-TOO-LONG-1")})

		var verr *employee.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Fields, 1)
		assert.Contains(t, verr.Fields, "employee_id")
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.UpdateEmployee(ctx, 42, validInput(t, "John Smith", "EMP001", 28))
		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

		_, err = f.service.PatchEmployee(ctx, 42, employee.Input{Age: intPtr(1)})
		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	})

	t.Run("DuplicateKeepsOriginalPhoto", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.CreateEmployee(ctx, validInput(t, "John Smith", "EMP001", 28))
		require.NoError(t, err)
		second, err := f.service.CreateEmployee(ctx, validInput(t, "Sarah Johnson", "EMP002", 32))
		require.NoError(t, err)

		_, err = f.service.UpdateEmployee(ctx, second.ID, validInput(t, "Sarah Johnson", "EMP001", 32))
		assert.ErrorIs(t, err, employee.ErrDuplicateEmployeeID)
		assert.Len(t, f.storedPhotos(t), 2)

		got, err := f.service.GetEmployeeByID(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, "EMP002", got.EmployeeID)
	})
}

func TestService_DeleteEmployee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.service.CreateEmployee(ctx, validInput(t, "John Smith", "EMP001", 28))
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteEmployee(ctx, created.ID))

	_, err = f.service.GetEmployeeByID(ctx, created.ID)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	assert.Empty(t, f.storedPhotos(t))
	assert.ErrorIs(t, f.service.DeleteEmployee(ctx, created.ID), employee.ErrEmployeeNotFound)
	assert.Equal(t, []string{employee.EventCreated, employee.EventDeleted}, f.publisher.types())
}

func TestService_ChartData(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.service.CreateEmployee(ctx, validInput(t, "Sarah Johnson", "EMP002", 32))
	require.NoError(t, err)
	_, err = f.service.CreateEmployee(ctx, validInput(t, "John Smith", "EMP001", 28))
	require.NoError(t, err)

	points, err := f.service.ChartData(ctx)
	require.NoError(t, err)

	all, err := f.service.GetAllEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, points, len(all))
	for i := range all {
		assert.Equal(t, all[i].Name, points[i].Name)
		assert.Equal(t, all[i].Age, points[i].Age)
	}
	assert.Equal(t, employee.ChartPoint{Name: "John Smith", Age: 28}, points[0])
}

func TestService_PhotoURL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	url, err := f.service.PhotoURL(ctx, "employee_photos/EMP001.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/media/employee_photos/EMP001.jpg", url)

	url, err = f.service.PhotoURL(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, url)
}
