// Package schedule launches recurring work on cron or interval schedules.
//
// Each firing runs as an independent supervisory root task, so a failing
// run never cancels other jobs or later runs of the same job. Failures are
// reported to a per-job or scheduler-wide callback; cancellations from
// Stop are not reported.
//
//	s := schedule.New()
//	s.Every("heartbeat", 30*time.Second, sendHeartbeat)
//	s.Cron("daily-report", "0 9 * * *", buildReport,
//		schedule.WithOnError(alertOps))
//	s.Start()
//	defer func() { <-s.Stop() }()
package schedule
