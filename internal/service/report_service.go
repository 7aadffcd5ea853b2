package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codicoteam/school-management-backend/internal/dto"
	"github.com/codicoteam/school-management-backend/internal/repository"
)

const schoolStatsCacheKey = "reports:school-statistics"

const recentPaymentLimit = 10

// ReportService produces the school-wide reporting rollups.
type ReportService interface {
	SchoolStatistics(ctx context.Context) (dto.SchoolStatisticsResponse, error)
}

type reportService struct {
	fees       repository.FeeRepository
	students   repository.StudentRepository
	teachers   repository.TeacherRepository
	structures repository.FeeStructureRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     zerolog.Logger
}

// NewReportService builds the report service. A nil cache client disables
// caching.
func NewReportService(fees repository.FeeRepository, students repository.StudentRepository, teachers repository.TeacherRepository, structures repository.FeeStructureRepository, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) ReportService {
	return &reportService{
		fees:       fees,
		students:   students,
		teachers:   teachers,
		structures: structures,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger.With().Str("component", "report_service").Logger(),
	}
}

// SchoolStatistics aggregates every fee record into overview, per-class and
// recent-payment views. The rollup is cached briefly; dashboards poll it.
func (s *reportService) SchoolStatistics(ctx context.Context) (dto.SchoolStatisticsResponse, error) {
	if cached, ok := s.fromCache(ctx); ok {
		return cached, nil
	}

	response, err := s.buildStatistics(ctx)
	if err != nil {
		return dto.SchoolStatisticsResponse{}, err
	}

	s.toCache(ctx, response)
	return response, nil
}

func (s *reportService) buildStatistics(ctx context.Context) (dto.SchoolStatisticsResponse, error) {
	var response dto.SchoolStatisticsResponse

	studentCount, err := s.students.Count(ctx)
	if err != nil {
		return response, err
	}
	teacherCount, err := s.teachers.Count(ctx)
	if err != nil {
		return response, err
	}

	structures, err := s.structures.ListActive(ctx)
	if err != nil {
		return response, err
	}

	fees, err := s.fees.List(ctx)
	if err != nil {
		return response, err
	}

	response.Overview = dto.SchoolOverview{
		TotalStudents:       studentCount,
		TotalTeachers:       teacherCount,
		ActiveFeeStructures: len(structures),
	}
	response.FeeStructures = dto.NewFeeStructureResponseSlice(structures)

	classBuckets := make(map[string]*dto.ClassStats)
	classStudents := make(map[string]map[uint]struct{})
	recent := make([]dto.RecentPayment, 0)

	for _, fee := range fees {
		response.FeeSummary.TotalAmount += fee.TotalAmount
		response.FeeSummary.TotalPaid += fee.PaidAmount
		response.FeeSummary.TotalBalance += fee.Balance

		if fee.Balance > 0 {
			response.FeeSummary.OutstandingStudents++
		} else {
			response.FeeSummary.FullyPaidStudents++
		}

		class := fee.Student.CurrentClass
		bucket, ok := classBuckets[class]
		if !ok {
			bucket = &dto.ClassStats{ClassName: class}
			classBuckets[class] = bucket
			classStudents[class] = make(map[uint]struct{})
		}
		bucket.TotalAmount += fee.TotalAmount
		bucket.TotalPaid += fee.PaidAmount
		bucket.TotalBalance += fee.Balance
		classStudents[class][fee.StudentID] = struct{}{}

		for _, payment := range fee.Payments {
			recent = append(recent, dto.RecentPayment{
				Date:          payment.PaymentDate,
				Amount:        payment.Amount,
				ReceiptNumber: payment.ReceiptNumber,
				Method:        payment.PaymentMethod,
				StudentID:     fee.StudentID,
				StudentName:   fee.Student.User.FullName(),
			})
		}
	}

	if response.FeeSummary.TotalAmount > 0 {
		response.FeeSummary.CollectionRate = int(math.Round(response.FeeSummary.TotalPaid / response.FeeSummary.TotalAmount * 100))
	}

	names := make([]string, 0, len(classBuckets))
	for name := range classBuckets {
		names = append(names, name)
	}
	sort.Strings(names)

	response.ClassStats = make([]dto.ClassStats, 0, len(names))
	for _, name := range names {
		bucket := classBuckets[name]
		bucket.StudentCount = len(classStudents[name])
		if bucket.TotalAmount > 0 {
			bucket.CollectionRate = int(math.Round(bucket.TotalPaid / bucket.TotalAmount * 100))
		}
		response.ClassStats = append(response.ClassStats, *bucket)
	}

	sort.Slice(recent, func(i, j int) bool { return recent[i].Date.After(recent[j].Date) })
	if len(recent) > recentPaymentLimit {
		recent = recent[:recentPaymentLimit]
	}
	response.RecentPayments = recent

	return response, nil
}

func (s *reportService) fromCache(ctx context.Context) (dto.SchoolStatisticsResponse, bool) {
	if s.cache == nil {
		return dto.SchoolStatisticsResponse{}, false
	}

	raw, err := s.cache.Get(ctx, schoolStatsCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("statistics cache read failed")
		}
		return dto.SchoolStatisticsResponse{}, false
	}

	var response dto.SchoolStatisticsResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return dto.SchoolStatisticsResponse{}, false
	}
	return response, true
}

func (s *reportService) toCache(ctx context.Context, response dto.SchoolStatisticsResponse) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}

	raw, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, schoolStatsCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("statistics cache write failed")
	}
}
