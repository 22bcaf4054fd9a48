package service

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/lessonpay/lessonpay/internal/api/dto"
	"github.com/lessonpay/lessonpay/internal/domain/gateway"
	ierr "github.com/lessonpay/lessonpay/internal/errors"
	"github.com/lessonpay/lessonpay/internal/testutil"
	"github.com/lessonpay/lessonpay/internal/types"
	"github.com/stretchr/testify/suite"
)

const (
	plan30 = "30 Minute Lessons - $150 / Month"
	plan45 = "45 Minute Lessons - $225 / Month"
	plan60 = "60 Minute Lessons - $300 / Month"
)

type EnrollmentServiceSuite struct {
	serviceSuite
	service EnrollmentService
}

func TestEnrollmentService(t *testing.T) {
	suite.Run(t, new(EnrollmentServiceSuite))
}

func (s *EnrollmentServiceSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.service = NewEnrollmentService(s.params())
}

func (s *EnrollmentServiceSuite) phoenix() *time.Location {
	return s.GetConfig().Billing.Location()
}

func (s *EnrollmentServiceSuite) validRequest() dto.CreateCheckoutSessionRequest {
	return dto.CreateCheckoutSessionRequest{
		StudentName:   "Ana Lopez",
		CustomerName:  "Maria Lopez",
		CustomerEmail: "maria@example.com",
		CustomerPhone: "+15555550100",
		LessonType:    plan45,
	}
}

func (s *EnrollmentServiceSuite) TestCreateCheckoutSession_ProratedCharge() {
	// 10 June: 20 of 30 days remain
	s.GetClock().Set(time.Date(2024, time.June, 10, 9, 30, 0, 0, s.phoenix()))

	resp, err := s.service.CreateCheckoutSession(s.GetContext(), s.validRequest())
	s.Require().NoError(err)

	s.Equal(int64(15000), resp.ChargeAmount)
	s.Equal(20, resp.DaysRemaining)
	s.Equal(30, resp.DaysInPeriod)
	s.Equal(time.Date(2024, time.July, 1, 0, 0, 0, 0, s.phoenix()).UTC(), resp.BillingCycleAnchor)
	s.Equal("usd", resp.Currency)
	s.NotEmpty(resp.CheckoutURL)
	s.NotEmpty(resp.SessionID)
	s.True(strings.HasPrefix(resp.EnrollmentID, types.UUID_PREFIX_ENROLLMENT+"_"))

	g := s.GetGateway()
	s.Equal([]string{testutil.MethodCreateCustomer, testutil.MethodCreateCheckoutSession}, g.Calls())

	customers := g.CustomerInputs()
	s.Require().Len(customers, 1)
	s.Equal("Maria Lopez", customers[0].Name)
	s.Equal("maria@example.com", customers[0].Email)
	s.Equal("+15555550100", customers[0].Phone)
	s.Equal("Ana Lopez", customers[0].Metadata[types.MetadataKeyStudentName])
	s.Equal(plan45, customers[0].Metadata[types.MetadataKeyLessonType])
	s.Equal(string(types.PlanModeTest), customers[0].Metadata[types.MetadataKeyPlanMode])
	s.Equal(resp.EnrollmentID, customers[0].Metadata[types.MetadataKeyEnrollmentID])

	checkouts := g.CheckoutInputs()
	s.Require().Len(checkouts, 1)
	in := checkouts[0]
	s.Equal(resp.CustomerID, in.CustomerID)
	s.Equal(gateway.CheckoutModePayment, in.Mode)
	s.Equal(int64(15000), in.Amount)
	s.Equal("usd", in.Currency)
	s.Equal(plan45, in.ProductName)
	s.True(in.SaveForFutureUse)
	s.Equal(plan45, in.Metadata.LessonType())
	s.Equal("Ana Lopez", in.Metadata[types.MetadataKeyStudentName])
	s.NotEmpty(in.IdempotencyKey)
}

func (s *EnrollmentServiceSuite) TestCreateCheckoutSession_RedirectURLs() {
	resp, err := s.service.CreateCheckoutSession(s.GetContext(), s.validRequest())
	s.Require().NoError(err)

	in := s.GetGateway().CheckoutInputs()[0]

	s.True(strings.HasPrefix(in.SuccessURL, testutil.TestClientURL+"/thank-you?session_id={CHECKOUT_SESSION_ID}&"))
	success, err := url.Parse(in.SuccessURL)
	s.Require().NoError(err)
	s.Equal("{CHECKOUT_SESSION_ID}", success.Query().Get("session_id"))
	s.Equal(resp.CustomerID, success.Query().Get("customer_id"))
	s.Equal(plan45, success.Query().Get("plan"))

	cancel, err := url.Parse(in.CancelURL)
	s.Require().NoError(err)
	s.Equal("/cancellation", cancel.Path)
	s.Equal(resp.CustomerID, cancel.Query().Get("customer_id"))
	s.Equal(plan45, cancel.Query().Get("plan"))
}

func (s *EnrollmentServiceSuite) TestCreateCheckoutSession_MissingFields() {
	tests := []struct {
		name    string
		mutate  func(r *dto.CreateCheckoutSessionRequest)
		missing string
	}{
		{name: "empty request", mutate: func(r *dto.CreateCheckoutSessionRequest) { *r = dto.CreateCheckoutSessionRequest{} }, missing: "studentName"},
		{name: "student name", mutate: func(r *dto.CreateCheckoutSessionRequest) { r.StudentName = "" }, missing: "studentName"},
		{name: "payer name", mutate: func(r *dto.CreateCheckoutSessionRequest) { r.CustomerName = "" }, missing: "customerName"},
		{name: "payer email", mutate: func(r *dto.CreateCheckoutSessionRequest) { r.CustomerEmail = "" }, missing: "customerEmail"},
		{name: "payer phone", mutate: func(r *dto.CreateCheckoutSessionRequest) { r.CustomerPhone = "" }, missing: "customerPhone"},
		{name: "plan label", mutate: func(r *dto.CreateCheckoutSessionRequest) { r.LessonType = "" }, missing: "lessonType"},
		{
			name: "email and label missing",
			mutate: func(r *dto.CreateCheckoutSessionRequest) {
				r.LessonType = ""
				r.CustomerEmail = ""
			},
			missing: "customerEmail",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.GetGateway().Clear()
			req := s.validRequest()
			tt.mutate(&req)

			resp, err := s.service.CreateCheckoutSession(s.GetContext(), req)
			s.Require().Error(err)
			s.Nil(resp)
			s.True(ierr.IsValidation(err))
			s.Equal(tt.missing, ierr.MissingFieldName(err))
			s.Equal("Missing required field: "+tt.missing, ierr.DisplayMessage(err, ""))
			s.Empty(s.GetGateway().Calls())
		})
	}
}

func (s *EnrollmentServiceSuite) TestCreateCheckoutSession_InvalidPlan() {
	for _, label := range []string{"45 Minute Lessons - $255 / Month", "30min", "30 minute lessons - $150 / month"} {
		s.Run(label, func() {
			req := s.validRequest()
			req.LessonType = label

			_, err := s.service.CreateCheckoutSession(s.GetContext(), req)
			s.Require().Error(err)
			s.True(ierr.IsInvalidPlan(err))
			s.Equal("Invalid lesson type selected.", ierr.DisplayMessage(err, ""))
			s.Empty(s.GetGateway().Calls())
		})
	}
}

func (s *EnrollmentServiceSuite) TestCreateCheckoutSession_Misconfigured() {
	tests := []struct {
		name    string
		mutate  func()
		setting string
	}{
		{name: "secret key", mutate: func() { s.GetConfig().Stripe.SecretKey = "" }, setting: "STRIPE_SECRET_KEY"},
		{name: "client url", mutate: func() { s.GetConfig().Server.ClientURL = "" }, setting: "CLIENT_URL"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			tt.mutate()

			_, err := s.service.CreateCheckoutSession(s.GetContext(), s.validRequest())
			s.Require().Error(err)
			s.True(ierr.IsMisconfiguration(err))
			s.Equal(tt.setting, ierr.ReportableDetails(err)["setting"])
			s.Empty(s.GetGateway().Calls())
		})
	}
}

func (s *EnrollmentServiceSuite) TestCreateCheckoutSession_LastDayUsesSetupMode() {
	s.GetClock().Set(time.Date(2024, time.June, 30, 20, 0, 0, 0, s.phoenix()))

	resp, err := s.service.CreateCheckoutSession(s.GetContext(), s.validRequest())
	s.Require().NoError(err)
	s.Equal(int64(0), resp.ChargeAmount)
	s.Equal(0, resp.DaysRemaining)

	in := s.GetGateway().CheckoutInputs()[0]
	s.Equal(gateway.CheckoutModeSetup, in.Mode)
	s.Equal(int64(0), in.Amount)
}

func (s *EnrollmentServiceSuite) TestCreateCheckoutSession_FirstOfMonthSkipsEnrollmentDay() {
	s.GetClock().Set(time.Date(2024, time.February, 1, 0, 0, 0, 0, s.phoenix()))
	req := s.validRequest()
	req.LessonType = plan60

	resp, err := s.service.CreateCheckoutSession(s.GetContext(), req)
	s.Require().NoError(err)
	s.Equal(28, resp.DaysRemaining)
	s.Equal(29, resp.DaysInPeriod)
	// 30000 * 28 / 29 = 28965.52
	s.Equal(int64(28966), resp.ChargeAmount)
}

func (s *EnrollmentServiceSuite) TestCreateCheckoutSession_CreatePolicyAlwaysCreates() {
	s.GetGateway().AddCustomer(&gateway.Customer{ID: "cus_existing", Email: "maria@example.com"})

	resp, err := s.service.CreateCheckoutSession(s.GetContext(), s.validRequest())
	s.Require().NoError(err)
	s.NotEqual("cus_existing", resp.CustomerID)
	s.Equal(0, s.GetGateway().CallCount(testutil.MethodFindCustomerByEmail))
	s.Equal(1, s.GetGateway().CallCount(testutil.MethodCreateCustomer))
}

func (s *EnrollmentServiceSuite) TestCreateCheckoutSession_ReusePolicy() {
	s.GetConfig().Enrollment.CustomerPolicy = types.CustomerPolicyReuse
	s.GetGateway().AddCustomer(&gateway.Customer{
		ID:       "cus_existing",
		Email:    "maria@example.com",
		Metadata: types.Metadata{"note": "kept"},
	})

	resp, err := s.service.CreateCheckoutSession(s.GetContext(), s.validRequest())
	s.Require().NoError(err)
	s.Equal("cus_existing", resp.CustomerID)
	s.Equal([]string{
		testutil.MethodFindCustomerByEmail,
		testutil.MethodUpdateCustomer,
		testutil.MethodCreateCheckoutSession,
	}, s.GetGateway().Calls())

	c, ok := s.GetGateway().Customer("cus_existing")
	s.Require().True(ok)
	s.Equal("kept", c.Metadata["note"])
	s.Equal(plan45, c.Metadata.LessonType())
	s.Equal("Maria Lopez", c.Name)
}

func (s *EnrollmentServiceSuite) TestCreateCheckoutSession_ReusePolicyCreatesWhenAbsent() {
	s.GetConfig().Enrollment.CustomerPolicy = types.CustomerPolicyReuse

	_, err := s.service.CreateCheckoutSession(s.GetContext(), s.validRequest())
	s.Require().NoError(err)
	s.Equal([]string{
		testutil.MethodFindCustomerByEmail,
		testutil.MethodCreateCustomer,
		testutil.MethodCreateCheckoutSession,
	}, s.GetGateway().Calls())
}

func (s *EnrollmentServiceSuite) TestCreateCheckoutSession_GatewayFailure() {
	s.GetGateway().FailOn(testutil.MethodCreateCheckoutSession,
		testutil.GatewayFailure("create checkout session", "Your card was declined.", "card_declined"))

	resp, err := s.service.CreateCheckoutSession(s.GetContext(), s.validRequest())
	s.Require().Error(err)
	s.Nil(resp)
	s.True(ierr.IsGateway(err))
	s.Equal("Your card was declined.", ierr.DisplayMessage(err, ""))

	details := ierr.ReportableDetails(err)
	s.Equal("card_error", details["type"])
	s.Equal("card_declined", details["code"])
	s.Equal("N/A", details["param"])

	// The customer is not rolled back
	s.Len(s.GetGateway().CustomerInputs(), 1)
	s.Empty(s.notifier.ofType(types.NotificationEnrollmentCheckoutCreated))
}

func (s *EnrollmentServiceSuite) TestCreateCheckoutSession_CustomerFailureStopsWorkflow() {
	s.GetGateway().FailOn(testutil.MethodCreateCustomer,
		testutil.GatewayFailure("create customer", "Invalid email address", "email_invalid"))

	_, err := s.service.CreateCheckoutSession(s.GetContext(), s.validRequest())
	s.Require().Error(err)
	s.True(ierr.IsGateway(err))
	s.Equal(0, s.GetGateway().CallCount(testutil.MethodCreateCheckoutSession))
}

func (s *EnrollmentServiceSuite) TestCreateCheckoutSession_Notifies() {
	resp, err := s.service.CreateCheckoutSession(s.GetContext(), s.validRequest())
	s.Require().NoError(err)

	sent := s.notifier.ofType(types.NotificationEnrollmentCheckoutCreated)
	s.Require().Len(sent, 1)
	s.Equal(resp.SessionID, sent[0].SessionID)
	s.Equal(resp.EnrollmentID, sent[0].EnrollmentID)
	s.Require().NotNil(sent[0].ChargeAmount)
	s.Equal(resp.ChargeAmount, *sent[0].ChargeAmount)
}

func (s *EnrollmentServiceSuite) TestCreateCheckoutSession_LiveModeUsesLivePrices() {
	s.GetConfig().Stripe.LiveMode = true

	_, err := s.service.CreateCheckoutSession(s.GetContext(), s.validRequest())
	s.Require().NoError(err)
	s.Equal(string(types.PlanModeLive), s.GetGateway().CheckoutInputs()[0].Metadata[types.MetadataKeyPlanMode])
}

func (s *EnrollmentServiceSuite) directRequest() dto.CreateSubscriptionRequest {
	return dto.CreateSubscriptionRequest{
		StudentName:     "Little Johnny",
		CustomerName:    "John Smith",
		CustomerEmail:   "john@example.com",
		CustomerPhone:   "+123456789",
		LessonType:      plan30,
		PaymentMethodID: "pm_card_visa",
	}
}

func (s *EnrollmentServiceSuite) TestCreateSubscription_Direct() {
	s.GetClock().Set(time.Date(2024, time.December, 20, 12, 0, 0, 0, s.phoenix()))

	resp, err := s.service.CreateSubscription(s.GetContext(), s.directRequest())
	s.Require().NoError(err)
	s.Equal("Subscription Created!", resp.Message)
	s.NotEmpty(resp.SubscriptionID)

	anchor := time.Date(2025, time.January, 1, 0, 0, 0, 0, s.phoenix()).UTC()
	s.Equal(anchor, resp.BillingCycleAnchor)

	g := s.GetGateway()
	s.Equal([]string{
		testutil.MethodCreateCustomer,
		testutil.MethodAttachPaymentMethod,
		testutil.MethodCreateSubscription,
	}, g.Calls())

	s.Equal("pm_card_visa", g.CustomerInputs()[0].PaymentMethodID)
	s.Equal("pm_card_visa", g.DefaultPaymentMethod(resp.CustomerID))
	s.Equal(resp.CustomerID, g.AttachedTo("pm_card_visa"))

	in := g.SubscriptionInputs()[0]
	s.Equal(types.ProrationBehaviorCreateProrations, in.ProrationBehavior)
	s.Equal(types.PaymentBehaviorDefaultIncomplete, in.PaymentBehavior)
	s.Equal(anchor, in.BillingCycleAnchor)
	s.Equal("pm_card_visa", in.DefaultPaymentMethodID)

	price, err := s.GetCatalog().Resolve(plan30, types.PlanModeTest)
	s.Require().NoError(err)
	s.Equal(price.PriceRef, in.PriceID)
	s.Len(s.notifier.ofType(types.NotificationEnrollmentActivated), 1)
}

func (s *EnrollmentServiceSuite) TestCreateSubscription_Validation() {
	req := s.directRequest()
	req.PaymentMethodID = ""
	_, err := s.service.CreateSubscription(s.GetContext(), req)
	s.True(ierr.IsValidation(err))
	s.Equal("paymentMethodId", ierr.MissingFieldName(err))

	req = s.directRequest()
	req.PriceID = "price_other"
	_, err = s.service.CreateSubscription(s.GetContext(), req)
	s.True(ierr.IsInvalidPlan(err))

	s.Empty(s.GetGateway().Calls())
}

func (s *EnrollmentServiceSuite) TestCreateSubscription_MatchingPriceIDAccepted() {
	price, err := s.GetCatalog().Resolve(plan30, types.PlanModeTest)
	s.Require().NoError(err)

	req := s.directRequest()
	req.PriceID = price.PriceRef
	_, err = s.service.CreateSubscription(s.GetContext(), req)
	s.NoError(err)
}

func (s *EnrollmentServiceSuite) TestCreateSubscription_GatewayFailure() {
	s.GetGateway().FailOn(testutil.MethodCreateSubscription,
		testutil.GatewayFailure("create subscription", "Your card has insufficient funds.", "card_declined"))

	_, err := s.service.CreateSubscription(s.GetContext(), s.directRequest())
	s.Require().Error(err)
	s.True(ierr.IsGateway(err))
	s.Empty(s.GetGateway().Subscriptions())
}

func (s *EnrollmentServiceSuite) TestListPlans() {
	resp := s.service.ListPlans(s.GetContext())
	s.Equal(string(types.PlanModeTest), resp.Mode)
	s.Require().Len(resp.Plans, 3)
	s.Equal(plan30, resp.Plans[0].Label)
	s.Equal(int64(15000), resp.Plans[0].Amount)
	s.Equal(plan45, resp.Plans[1].Label)
	s.Equal(int64(22500), resp.Plans[1].Amount)
	s.Equal(plan60, resp.Plans[2].Label)
}
