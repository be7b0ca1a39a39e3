// Package query answers free-text questions about a TimeSeries with plain-text
// reports.
//
// Classification is keyword based and ordered: a prediction of a named field
// wins over generic growth or trend wording, which wins over anomaly, seasonal,
// correlation and summary requests. A question asking to "predict the student
// trend" is therefore a prediction. An embedded number between 1 and 24 sets the
// forecast horizon in months, default 3. Unrecognized questions get a list of
// what can be asked.
//
//	report := query.Route("forecast revenue for the next 6 months", ts)
package query
