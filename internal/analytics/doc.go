// Package analytics computes the report figures for order books, monthly
// sales exports and the master work file.
//
// Every function is pure: it takes already extracted records and returns
// plain JSON-tagged structs from pkg/contracts/domain. Nothing here reads
// workbooks, logs or keeps state between calls, so the same records always
// give the same report.
//
// # Order book
//
//   - Aging: dated orders older than a day threshold (default 90)
//   - LargeOrders: orders above a SEK threshold (default 100 000)
//   - CustomerConcentration: top-5 shares, top-3 and top-1 percent, HHI
//   - WeekOverWeek: new, closed and unchanged orders between two snapshots
//   - CurrencyBreakdown and Alerts for the summary sheet
//
// # Sales
//
//   - TopArticles and TopCustomers: top-N rankings with an "other" bucket
//   - NewArticles: article ids missing from the master file
//
// # Intelligence
//
//   - ClassifyCohorts and MaterialCohorts: churned, declining, growing,
//     new and flat customers between two LTM periods
//   - Bridge: prior total to current total in four components
//   - MonthlySeries, LTMSeries, YoYByMonth, TopMovements, TopArticleRevenue
//
// Ties in every ordering are broken by name so output is deterministic.
package analytics
