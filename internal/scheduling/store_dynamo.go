package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

const patientIndexName = "patient-index"

type dynamoAPI interface {
	TransactWriteItems(context.Context, *dynamodb.TransactWriteItemsInput, ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// appointmentItem is the persisted appointment row.
type appointmentItem struct {
	PK        string `dynamodbav:"pk"`
	SK        string `dynamodbav:"sk"`
	GSI1PK    string `dynamodbav:"gsi1pk"`
	GSI1SK    string `dynamodbav:"gsi1sk"`
	ID        string `dynamodbav:"id"`
	DoctorID  string `dynamodbav:"doctorId"`
	PatientID string `dynamodbav:"patientId"`
	Issue     string `dynamodbav:"issue"`
	StartTime string `dynamodbav:"startDatetime"`
	EndTime   string `dynamodbav:"endDatetime"`
	Status    string `dynamodbav:"confirmation"`
	CreatedAt string `dynamodbav:"createdAt"`
}

// DynamoCalendarStore keeps appointments in one DynamoDB table. Each booking
// additionally writes per-slot lock items under the doctor's partition; the
// appointment row, its slot locks, and condition checks over the protected
// window travel in a single TransactWriteItems call, so the conflict check
// and the insert are one atomic operation.
type DynamoCalendarStore struct {
	client    dynamoAPI
	tableName string
	buffer    time.Duration
	logger    *logging.Logger
}

// NewDynamoCalendarStore builds a store over the provided client. buffer is
// the protected conflict window half-width and must sit on the slot grid.
func NewDynamoCalendarStore(client dynamoAPI, tableName string, buffer time.Duration, logger *logging.Logger) *DynamoCalendarStore {
	if client == nil {
		panic("scheduling: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("scheduling: table name cannot be empty")
	}
	if buffer <= 0 || buffer%slotGranularity != 0 {
		panic("scheduling: conflict buffer must be a positive multiple of the slot granularity")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoCalendarStore{client: client, tableName: tableName, buffer: buffer, logger: logger}
}

func appointmentKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: "APPT#" + id},
		"sk": &types.AttributeValueMemberS{Value: "APPT"},
	}
}

func slotKey(doctorID string, slot time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: "DOCTOR#" + doctorID},
		"sk": &types.AttributeValueMemberS{Value: fmt.Sprintf("SLOT#%d", slot.Unix())},
	}
}

// PutAppointment commits the booking atomically. A collision anywhere in the
// protected window cancels the whole transaction and surfaces as a
// ConflictError; no partial write survives.
func (s *DynamoCalendarStore) PutAppointment(ctx context.Context, appt *Appointment) error {
	if appt == nil {
		return errors.New("scheduling: appointment cannot be nil")
	}

	item, err := attributevalue.MarshalMap(appointmentItem{
		PK:        "APPT#" + appt.ID,
		SK:        "APPT",
		GSI1PK:    "PATIENT#" + appt.PatientID,
		GSI1SK:    appt.StartTime.UTC().Format(time.RFC3339),
		ID:        appt.ID,
		DoctorID:  appt.DoctorID,
		PatientID: appt.PatientID,
		Issue:     appt.Issue,
		StartTime: appt.StartTime.UTC().Format(time.RFC3339),
		EndTime:   appt.EndTime.UTC().Format(time.RFC3339),
		Status:    string(appt.Status),
		CreatedAt: appt.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("scheduling: marshal appointment: %w", err)
	}

	items := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:           aws.String(s.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(pk)"),
		},
	}}

	locked := make(map[int64]struct{})
	for _, slot := range lockSlots(appt.StartTime.UTC(), appt.EndTime.UTC()) {
		locked[slot.Unix()] = struct{}{}
		lock := slotKey(appt.DoctorID, slot)
		lock["appointmentId"] = &types.AttributeValueMemberS{Value: appt.ID}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(s.tableName),
				Item:                lock,
				ConditionExpression: aws.String("attribute_not_exists(pk)"),
			},
		})
	}
	for _, slot := range windowSlots(appt.StartTime.UTC(), s.buffer) {
		if _, own := locked[slot.Unix()]; own {
			continue
		}
		items = append(items, types.TransactWriteItem{
			ConditionCheck: &types.ConditionCheck{
				TableName:           aws.String(s.tableName),
				Key:                 slotKey(appt.DoctorID, slot),
				ConditionExpression: aws.String("attribute_not_exists(pk)"),
			},
		})
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) && hasConditionalFailure(canceled) {
			s.logger.Info("booking conflict detected",
				"doctor_id", appt.DoctorID,
				"start_time", appt.StartTime.UTC().Format(time.RFC3339),
			)
			return &ConflictError{Existing: Summary{DoctorID: appt.DoctorID}}
		}
		return fmt.Errorf("%w: put appointment: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// GetAppointment fetches one appointment by ID.
func (s *DynamoCalendarStore) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	if id == "" {
		return nil, errors.New("scheduling: appointment ID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       appointmentKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get appointment: %v", ErrStoreUnavailable, err)
	}
	if out.Item == nil {
		return nil, ErrAppointmentNotFound
	}
	return unmarshalAppointment(out.Item)
}

// ListByPatient returns every appointment for a patient ordered by start
// time (the GSI sort key).
func (s *DynamoCalendarStore) ListByPatient(ctx context.Context, patientID string) ([]*Appointment, error) {
	if patientID == "" {
		return nil, errors.New("scheduling: patient ID required")
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(patientIndexName),
		KeyConditionExpression: aws.String("gsi1pk = :patient"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":patient": &types.AttributeValueMemberS{Value: "PATIENT#" + patientID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list appointments: %v", ErrStoreUnavailable, err)
	}

	appointments := make([]*Appointment, 0, len(out.Items))
	for _, item := range out.Items {
		appt, err := unmarshalAppointment(item)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appt)
	}
	return appointments, nil
}

// DeleteAppointment removes the appointment row and releases its slot locks
// in one transaction.
func (s *DynamoCalendarStore) DeleteAppointment(ctx context.Context, id string) error {
	appt, err := s.GetAppointment(ctx, id)
	if err != nil {
		return err
	}

	items := []types.TransactWriteItem{{
		Delete: &types.Delete{
			TableName: aws.String(s.tableName),
			Key:       appointmentKey(id),
		},
	}}
	for _, slot := range lockSlots(appt.StartTime, appt.EndTime) {
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(s.tableName),
				Key:       slotKey(appt.DoctorID, slot),
			},
		})
	}

	if _, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	}); err != nil {
		return fmt.Errorf("%w: delete appointment: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func hasConditionalFailure(canceled *types.TransactionCanceledException) bool {
	for _, reason := range canceled.CancellationReasons {
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}

func unmarshalAppointment(item map[string]types.AttributeValue) (*Appointment, error) {
	var row appointmentItem
	if err := attributevalue.UnmarshalMap(item, &row); err != nil {
		return nil, fmt.Errorf("scheduling: decode appointment: %w", err)
	}
	start, err := time.Parse(time.RFC3339, row.StartTime)
	if err != nil {
		return nil, fmt.Errorf("scheduling: decode start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, row.EndTime)
	if err != nil {
		return nil, fmt.Errorf("scheduling: decode end time: %w", err)
	}
	created, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scheduling: decode created time: %w", err)
	}
	return &Appointment{
		ID:        row.ID,
		DoctorID:  row.DoctorID,
		PatientID: row.PatientID,
		Issue:     row.Issue,
		StartTime: start,
		EndTime:   end,
		Status:    Status(row.Status),
		CreatedAt: created,
	}, nil
}
