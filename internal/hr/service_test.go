package hr_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/apiclient"
	"github.com/frahmantamala/appraisal-portal/internal/appraisal"
	"github.com/frahmantamala/appraisal-portal/internal/hr"
	"github.com/frahmantamala/appraisal-portal/pkg/logger"
)

var _ = Describe("Service", func() {
	var (
		ctx context.Context
		api *fakeAPI
		svc *hr.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		api = &fakeAPI{
			employees: []appraisal.Person{{ID: 1, Name: "Ana"}},
			managers:  []appraisal.Person{{ID: 4, Name: "Pat"}},
			cycles: []appraisal.Cycle{
				{ID: 10, Status: appraisal.StatusOpen, Year: "2025"},
				{ID: 11, Status: appraisal.StatusPendingPMReview, Year: "2025"},
			},
		}
		svc = hr.NewService(api, logger.Discard())
	})

	It("reads all lists", func() {
		dash, err := svc.Dashboard(ctx, "s1", "tok")

		Expect(err).NotTo(HaveOccurred())
		Expect(dash.Employees).To(HaveLen(1))
		Expect(dash.Managers).To(HaveLen(1))
		Expect(dash.Cycles).To(HaveLen(2))
		Expect(dash.Loaded).To(BeTrue())
		Expect(dash.DefaultYear).To(HaveLen(4))
	})

	It("keeps the previous cycles when a later read fails", func() {
		_, err := svc.Dashboard(ctx, "s1", "tok")
		Expect(err).NotTo(HaveOccurred())
		api.setCyclesErr(errors.New("connection reset"))

		dash, err := svc.Dashboard(ctx, "s1", "tok")

		Expect(err).To(MatchError("connection reset"))
		Expect(dash.Cycles).To(HaveLen(2))
		Expect(dash.Loaded).To(BeTrue())
		Expect(dash.Employees).To(HaveLen(1))
	})

	It("isolates a failing read on first load", func() {
		api.setCyclesErr(errors.New("boom"))

		dash, err := svc.Dashboard(ctx, "s1", "tok")

		Expect(err).To(HaveOccurred())
		Expect(dash.Loaded).To(BeFalse())
		Expect(dash.Employees).To(HaveLen(1))
		Expect(dash.Managers).To(HaveLen(1))
	})

	It("forgets a browser's lists", func() {
		_, _ = svc.Dashboard(ctx, "s1", "tok")
		svc.ForgetScope("s1")
		api.setCyclesErr(errors.New("down"))

		dash, _ := svc.Dashboard(ctx, "s1", "tok")

		Expect(dash.Loaded).To(BeFalse())
	})

	It("initiates a cycle", func() {
		_, err := svc.Initiate(ctx, "tok", hr.InitiateForm{EmployeeID: 1, Year: "2025"})

		Expect(err).NotTo(HaveOccurred())
		Expect(api.initiated).To(ConsistOf(appraisal.InitiateRequest{EmployeeID: 1, Year: "2025"}))
	})

	It("validates the initiate form locally", func() {
		_, err := svc.Initiate(ctx, "tok", hr.InitiateForm{Year: "25"})

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.GetDetailedMessage()).To(Equal("employeeId is required; year must be a four digit year"))
		Expect(api.initiated).To(BeEmpty())
	})

	It("passes the server's rejection through", func() {
		api.writeErr = &apiclient.APIError{StatusCode: 409, Message: "Appraisal already exists for this year"}

		_, err := svc.Initiate(ctx, "tok", hr.InitiateForm{EmployeeID: 1, Year: "2025"})

		Expect(apiclient.UserMessage(err, "x")).To(Equal("Appraisal already exists for this year"))
	})

	It("assigns a reviewer to an open cycle", func() {
		_, _ = svc.Dashboard(ctx, "s1", "tok")

		Expect(svc.AssignPM(ctx, "s1", "tok", 10, 4)).To(Succeed())
		Expect(api.assigned).To(ConsistOf([2]int64{10, 4}))
	})

	It("refuses a reviewer for a cycle past open", func() {
		_, _ = svc.Dashboard(ctx, "s1", "tok")

		err := svc.AssignPM(ctx, "s1", "tok", 11, 4)

		Expect(err).To(HaveOccurred())
		Expect(api.assigned).To(BeEmpty())
	})
})
