package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/JonMunkholm/spregistry/internal/core"
	"github.com/JonMunkholm/spregistry/internal/core/mocks"
	"github.com/JonMunkholm/spregistry/internal/store/memory"
	"github.com/JonMunkholm/spregistry/internal/store/table"
)

type record struct {
	Fields  map[string]string  `json:"fields"`
	Results []core.CheckResult `json:"results"`
}

func form(responseID, org string, ids ...string) record {
	r := record{Fields: map[string]string{
		core.FieldResponseID:    responseID,
		core.FieldTimestamp:     "2024-02-29 09:00:00",
		core.FieldOrganization:  org,
		core.FieldContactName:   "Ann",
		core.FieldContactHandle: "@ann",
		core.FieldContactEmail:  "ann@example.com",
	}}
	for i, id := range ids {
		r.Fields[core.MinerIDField(i+1)] = id
		r.Fields[core.CityField(i+1)] = "Tokyo"
		r.Fields[core.CountryField(i+1)] = "JP"
		r.Results = append(r.Results, core.CheckResult{Identifier: id, Success: true})
	}
	return r
}

func batch(records ...record) *strings.Reader {
	b, _ := json.Marshal(records)
	return strings.NewReader(string(b))
}

// failingStore rejects every commit.
type failingStore struct{ *memory.Store }

func (failingStore) Commit(context.Context, ...table.Table) error {
	return errors.New("disk full")
}

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	notifier *mocks.MockNotifier
	recorder *mocks.MockRecorder
	store    *memory.Store
	service  *core.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.recorder = mocks.NewMockRecorder(s.ctrl)
	s.store = memory.New()
	s.service = s.newService(s.store, core.ServiceConfig{AllowMissing: true, IssueID: "99"})
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) newService(store table.Store, cfg core.ServiceConfig) *core.Service {
	return core.NewService(store, s.notifier, cfg,
		core.WithRecorder(s.recorder),
		core.WithDriverOptions(core.WithClock(func() time.Time {
			return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		})),
	)
}

func (s *ServiceSuite) rows(name string) []table.Row {
	t, ok := s.store.Snapshot(name)
	s.Require().True(ok, "table %s not committed", name)
	return t.Rows
}

func (s *ServiceSuite) TestRun_CommitsAndNotifiesInOrder() {
	ctx := context.Background()

	s.notifier.EXPECT().Enabled().Return(true)
	gomock.InOrder(
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, f core.Failure) (string, error) {
				s.Equal("r2", f.Submission.ResponseID)
				s.Equal([]string{"f01 already listed"}, f.Errors)
				return "https://example.test/issues/1", nil
			}),
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, f core.Failure) (string, error) {
				s.Equal("r3", f.Submission.ResponseID)
				return "", errors.New("502 bad gateway")
			}),
	)
	s.recorder.EXPECT().NotificationSent(true)
	s.recorder.EXPECT().NotificationSent(false)
	s.recorder.EXPECT().RunCompleted(gomock.Any())

	report, err := s.service.Run(ctx, batch(
		form("r1", "Acme", "f01", "f02"),
		form("r2", "Beta", "f01"),
		form("r3", "Gamma"),
	), core.RunOptions{Trigger: "cli"})
	s.Require().NoError(err)

	s.Equal(3, report.Inputs)
	s.Equal(1, report.Accepted)
	s.Equal(2, report.Rejected)
	s.Equal(1, report.NewOrganizations)
	s.Equal(2, report.NewListings)
	s.Equal(1, report.NotificationsSent)
	s.Equal(1, report.NotificationsFailed)
	s.Require().Len(report.Failures, 2)
	s.Equal("https://example.test/issues/1", report.Failures[0].IssueURL)
	s.Empty(report.Failures[1].IssueURL)
	s.NotEmpty(report.RunID)

	orgs := s.rows(core.TableOrganizations)
	s.Require().Len(orgs, 1)
	s.Equal("1", orgs[0]["sp_org_id"])

	listing := s.rows(core.TableListing)
	s.Require().Len(listing, 2)
	s.Equal("AS", listing[0]["loc_continent"])

	log := s.rows(core.TableProcessingLog)
	s.Require().Len(log, 3)
	s.Equal("99", log[2]["issue_id"])
	s.Equal(core.NoEntriesMessage, log[2]["error_message"])

	s.Equal(1, s.service.History().Len())
}

func (s *ServiceSuite) TestRun_SecondRunAppends() {
	ctx := context.Background()
	s.notifier.EXPECT().Enabled().Return(true).AnyTimes()
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return("u", nil)
	s.recorder.EXPECT().NotificationSent(true)
	s.recorder.EXPECT().RunCompleted(gomock.Any()).Times(2)

	_, err := s.service.Run(ctx, batch(form("r1", "Acme", "f01")), core.RunOptions{})
	s.Require().NoError(err)

	report, err := s.service.Run(ctx, batch(
		form("r2", "ACME", "f02"),
		form("r3", "Acme", "f01"),
	), core.RunOptions{})
	s.Require().NoError(err)
	s.Equal(0, report.NewOrganizations)

	listing := s.rows(core.TableListing)
	s.Require().Len(listing, 2)
	s.Equal("1", listing[1]["sp_org_id"])
	s.Len(s.rows(core.TableProcessingLog), 3)
}

func (s *ServiceSuite) TestRun_DryRunPersistsNothing() {
	s.recorder.EXPECT().RunCompleted(gomock.Any())

	report, err := s.service.Run(context.Background(), batch(form("r1", "Acme", "f01"), form("r2", "Beta")),
		core.RunOptions{DryRun: true})
	s.Require().NoError(err)

	s.True(report.DryRun)
	s.Equal(1, report.Accepted)
	s.Equal(1, report.Rejected)
	_, ok := s.store.Snapshot(core.TableListing)
	s.False(ok)
}

func (s *ServiceSuite) TestRun_DisabledNotifier() {
	s.notifier.EXPECT().Enabled().Return(false)
	s.recorder.EXPECT().RunCompleted(gomock.Any())

	report, err := s.service.Run(context.Background(), batch(form("r1", "Acme")), core.RunOptions{})
	s.Require().NoError(err)
	s.Equal(0, report.NotificationsSent)
	s.Len(s.rows(core.TableProcessingLog), 1)
}

func (s *ServiceSuite) TestRun_ParseErrorAbortsBeforeWrites() {
	s.recorder.EXPECT().RunFailed(core.StageParse)

	_, err := s.service.Run(context.Background(), strings.NewReader("{not json"), core.RunOptions{})
	s.ErrorIs(err, core.ErrBatchParse)
	_, ok := s.store.Snapshot(core.TableProcessingLog)
	s.False(ok)
}

func (s *ServiceSuite) TestRun_MissingTableIsFatalUnlessAllowed() {
	svc := s.newService(s.store, core.ServiceConfig{AllowMissing: false})
	s.recorder.EXPECT().RunFailed(core.StageLoad)

	_, err := svc.Run(context.Background(), batch(form("r1", "Acme", "f01")), core.RunOptions{})
	s.ErrorIs(err, table.ErrNotFound)
	s.Equal("STORE001", core.MapError(err).Code)
}

func (s *ServiceSuite) TestRun_CommitFailureSkipsNotifications() {
	svc := s.newService(failingStore{memory.New()}, core.ServiceConfig{AllowMissing: true})
	s.recorder.EXPECT().RunFailed(core.StageCommit)

	_, err := svc.Run(context.Background(), batch(form("r1", "Acme")), core.RunOptions{})
	s.Require().Error(err)
	s.Contains(err.Error(), "commit tables")
}

func (s *ServiceSuite) TestRun_BusyLimiter() {
	svc := s.newService(s.store, core.ServiceConfig{AllowMissing: true, LockWait: 10 * time.Millisecond})
	s.Require().True(svc.Limiter().TryAcquire())
	defer svc.Limiter().Release()

	s.recorder.EXPECT().RunFailed(core.StageLock)

	_, err := svc.Run(context.Background(), batch(form("r1", "Acme", "f01")), core.RunOptions{})
	s.ErrorIs(err, core.ErrTooManyRuns)
}

func (s *ServiceSuite) TestQueries() {
	ctx := context.Background()
	s.store.Put(core.TableOrganizations, core.OrganizationColumns, []table.Row{
		{"sp_org_id": "1", "sp_organization": "Acme", "contact_name": "Ann"},
		{"sp_org_id": "2", "sp_organization": "Beta"},
	})
	s.store.Put(core.TableListing, core.ListingColumns, []table.Row{
		{"sp_id": "f01", "sp_org_id": "1", "loc_country": "DE", "loc_continent": "EU", "active": "true"},
		{"sp_id": "f02", "sp_org_id": "2", "loc_country": "JP", "loc_continent": "AS", "active": "true"},
	})
	s.store.Put(core.TableProcessingLog, core.ProcessingLogColumns, []table.Row{
		{"response_id": "r1"}, {"response_id": "r2"}, {"response_id": "r1"},
	})

	orgs, err := s.service.Organizations(ctx)
	s.Require().NoError(err)
	s.Len(orgs, 2)

	org, err := s.service.Organization(ctx, 1)
	s.Require().NoError(err)
	s.Equal("Ann", org.Contact.Name)

	_, err = s.service.Organization(ctx, 3)
	s.ErrorIs(err, core.ErrRecordNotFound)

	eu, err := s.service.Listing(ctx, core.ListingFilter{Continent: "eu"})
	s.Require().NoError(err)
	s.Require().Len(eu, 1)
	s.Equal("f01", eu[0].Identifier)
	s.True(eu[0].Active)

	byOrg, err := s.service.Listing(ctx, core.ListingFilter{OrgID: 2})
	s.Require().NoError(err)
	s.Len(byOrg, 1)

	entry, err := s.service.ListingEntry(ctx, "f02")
	s.Require().NoError(err)
	s.Equal(2, entry.OrgID)

	_, err = s.service.ListingEntry(ctx, "f99")
	s.ErrorIs(err, core.ErrRecordNotFound)

	log, err := s.service.ProcessingLog(ctx, "r1")
	s.Require().NoError(err)
	s.Len(log, 2)

	all, err := s.service.ProcessingLog(ctx, "")
	s.Require().NoError(err)
	s.Len(all, 3)

	s.Len(s.service.ListTables(), 3)
}
