//go:build integration

package reportstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
	"github.com/pkwroblewski/CBCR-TP-sub001/internal/reportstore"
	"github.com/pkwroblewski/CBCR-TP-sub001/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	store *reportstore.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	pg := containers.NewPostgresContainer(s.T())

	store, err := reportstore.NewPostgresStore(context.Background(), pg.URL)
	s.Require().NoError(err)
	s.store = store
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.store != nil {
		s.store.Close()
	}
}

func newReport(refID string) *cbc.ParsedReport {
	return &cbc.ParsedReport{
		ID: uuid.NewString(),
		File: cbc.FileInfo{
			Name:     "report.xml",
			Received: time.Now().UTC().Truncate(time.Microsecond),
		},
		Message: &cbc.CbcMessage{
			MessageSpec: cbc.MessageSpec{MessageRefID: refID},
		},
		Report: cbc.Assemble([]cbc.ValidationResult{
			{
				RuleID:   "DQ-201",
				Category: cbc.CategoryDataQuality,
				Severity: cbc.SeverityWarning,
				Message:  "zero revenue reported alongside employees",
			},
		}),
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	report := newReport("PG-" + uuid.NewString())

	s.Require().NoError(s.store.Save(ctx, report))

	found, err := s.store.FindByID(ctx, report.ID)
	s.Require().NoError(err)
	s.Equal(report.ID, found.ID)
	s.Equal(report.Message.MessageSpec.MessageRefID, found.Message.MessageSpec.MessageRefID)
	s.Equal(report.Report.Total, found.Report.Total)
	s.True(found.Report.IsValid)
}

func (s *PostgresStoreSuite) TestDuplicateMessageRefID() {
	ctx := context.Background()
	refID := "PG-DUP-" + uuid.NewString()

	s.Require().NoError(s.store.Save(ctx, newReport(refID)))
	s.Require().ErrorIs(s.store.Save(ctx, newReport(refID)), reportstore.ErrDuplicate)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	report := newReport("PG-DEL-" + uuid.NewString())

	s.Require().NoError(s.store.Save(ctx, report))
	s.Require().NoError(s.store.Delete(ctx, report.ID))

	_, err := s.store.FindByID(ctx, report.ID)
	s.Require().ErrorIs(err, reportstore.ErrNotFound)
	s.Require().ErrorIs(s.store.Delete(ctx, report.ID), reportstore.ErrNotFound)
}

func (s *PostgresStoreSuite) TestList() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.store.Save(ctx, newReport("PG-LIST-"+uuid.NewString())))
	}

	listed, err := s.store.List(ctx, 2)
	s.Require().NoError(err)
	s.Len(listed, 2)
}
