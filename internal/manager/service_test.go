package manager_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/appraisal"
	"github.com/frahmantamala/appraisal-portal/internal/manager"
	"github.com/frahmantamala/appraisal-portal/internal/review"
	"github.com/frahmantamala/appraisal-portal/pkg/logger"
)

var _ = Describe("Service", func() {
	var (
		ctx context.Context
		api *fakeAPI
		svc *manager.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		api = newFakeAPI()
		svc = manager.NewService(api, logger.Discard())
	})

	It("reads the dashboard lists", func() {
		dash, err := svc.Dashboard(ctx, "s1", "tok")

		Expect(err).NotTo(HaveOccurred())
		Expect(dash.Pending).To(HaveLen(1))
		Expect(dash.Submitted).To(BeEmpty())
	})

	It("starts a review on the first question with default answers", func() {
		page, err := svc.Review(ctx, "s1", "tok", 3)

		Expect(err).NotTo(HaveOccurred())
		Expect(page.Step).To(Equal(0))
		Expect(page.Total).To(Equal(2))
		Expect(page.Progress).To(Equal(50))
		Expect(page.First).To(BeTrue())
		Expect(page.Last).To(BeFalse())
		Expect(page.Question.ID).To(Equal(int64(11)))
		Expect(page.Answer).To(Equal(review.Answer{Rating: appraisal.DefaultRating}))
	})

	It("keeps answers while moving between steps", func() {
		_, err := svc.Step(ctx, "s1", "tok", 3, manager.StepInput{Action: manager.ActionNext, QuestionID: 11, Rating: 8, Comment: "steady"})
		Expect(err).NotTo(HaveOccurred())

		page, _ := svc.Review(ctx, "s1", "tok", 3)
		Expect(page.Step).To(Equal(1))
		Expect(page.Last).To(BeTrue())

		_, err = svc.Step(ctx, "s1", "tok", 3, manager.StepInput{Action: manager.ActionPrevious, QuestionID: 12, Rating: 6})
		Expect(err).NotTo(HaveOccurred())

		page, _ = svc.Review(ctx, "s1", "tok", 3)
		Expect(page.Step).To(Equal(0))
		Expect(page.Answer).To(Equal(review.Answer{Rating: 8, Comment: "steady"}))
		Expect(api.questionReads).To(Equal(1))
	})

	It("submits every answer from the last step and starts over afterwards", func() {
		_, _ = svc.Step(ctx, "s1", "tok", 3, manager.StepInput{Action: manager.ActionNext, QuestionID: 11, Rating: 9})

		submitted, err := svc.Step(ctx, "s1", "tok", 3, manager.StepInput{Action: manager.ActionSubmit, QuestionID: 12, Rating: 7, Comment: "kind"})

		Expect(err).NotTo(HaveOccurred())
		Expect(submitted).To(BeTrue())
		Expect(api.submissions[3]).To(Equal([]appraisal.RatingSubmission{
			{QuestionID: 11, Rating: 9},
			{QuestionID: 12, Rating: 7, Comment: "kind"},
		}))

		page, _ := svc.Review(ctx, "s1", "tok", 3)
		Expect(page.Step).To(Equal(0))
	})

	It("refuses to submit before the last step", func() {
		submitted, err := svc.Step(ctx, "s1", "tok", 3, manager.StepInput{Action: manager.ActionSubmit, QuestionID: 11, Rating: 5})

		Expect(submitted).To(BeFalse())
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		Expect(api.submissions).To(BeEmpty())
	})

	It("rejects a rating off the scale without moving", func() {
		_, err := svc.Step(ctx, "s1", "tok", 3, manager.StepInput{Action: manager.ActionNext, QuestionID: 11, Rating: 0})

		Expect(err).To(HaveOccurred())
		page, _ := svc.Review(ctx, "s1", "tok", 3)
		Expect(page.Step).To(Equal(0))
	})

	It("keeps the answers when the submission fails", func() {
		api.submitErr = errors.New("timeout")
		_, _ = svc.Step(ctx, "s1", "tok", 3, manager.StepInput{Action: manager.ActionNext, QuestionID: 11, Rating: 9})

		_, err := svc.Step(ctx, "s1", "tok", 3, manager.StepInput{Action: manager.ActionSubmit, QuestionID: 12, Rating: 4})

		Expect(err).To(MatchError(ContainSubstring("timeout")))
		page, _ := svc.Review(ctx, "s1", "tok", 3)
		Expect(page.Step).To(Equal(1))
		Expect(page.Answer.Rating).To(Equal(4))
	})

	It("retries loading questions on the next visit", func() {
		api.questionsErr = errors.New("down")
		_, err := svc.Review(ctx, "s1", "tok", 3)
		Expect(err).To(HaveOccurred())

		api.questionsErr = nil
		page, err := svc.Review(ctx, "s1", "tok", 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Total).To(Equal(2))
	})

	It("keeps review state per browser", func() {
		_, _ = svc.Step(ctx, "s1", "tok", 3, manager.StepInput{Action: manager.ActionNext, QuestionID: 11, Rating: 9})

		other, _ := svc.Review(ctx, "s2", "tok", 3)
		Expect(other.Step).To(Equal(0))

		svc.ForgetScope("s1")
		mine, _ := svc.Review(ctx, "s1", "tok", 3)
		Expect(mine.Step).To(Equal(0))
	})
})
