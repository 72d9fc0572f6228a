package model

import (
	"fmt"
	"strings"
)

// Axis is one of the two independent budget tracks of the 9-box grid
type Axis string

const (
	AxisPerformance Axis = "performance"
	AxisPotential   Axis = "potential"
)

// Axes lists every axis in display order
var Axes = []Axis{AxisPerformance, AxisPotential}

// Category subdivides an axis budget
type Category string

const (
	CategoryDepartment Category = "department"
	CategoryRole       Category = "role"
	CategoryCommon     Category = "common"
)

// Categories lists every category in display order
var Categories = []Category{CategoryDepartment, CategoryRole, CategoryCommon}

// Priority of a key-result line
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Metric describes how a key-result line is measured.
// It is stored for display only and has no numeric behaviour.
type Metric string

const (
	MetricNone       Metric = ""
	MetricPercentage Metric = "percentage"
	MetricCount      Metric = "count"
	MetricRating     Metric = "rating"
	MetricScore      Metric = "score"
)

// ParseAxis converts user input into an Axis
func ParseAxis(s string) (Axis, error) {
	switch Axis(strings.ToLower(strings.TrimSpace(s))) {
	case AxisPerformance:
		return AxisPerformance, nil
	case AxisPotential:
		return AxisPotential, nil
	}
	return "", fmt.Errorf("invalid axis %q (expected performance or potential)", s)
}

// ParseCategory converts user input into a Category
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryDepartment:
		return CategoryDepartment, nil
	case CategoryRole:
		return CategoryRole, nil
	case CategoryCommon:
		return CategoryCommon, nil
	}
	return "", fmt.Errorf("invalid category %q (expected department, role or common)", s)
}

// ParsePriority converts user input into a Priority, defaulting to medium when empty
func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case "", PriorityMedium:
		return PriorityMedium, nil
	case PriorityLow:
		return PriorityLow, nil
	case PriorityHigh:
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("invalid priority %q (expected low, medium or high)", s)
}

// ParseMetric converts user input into a Metric. Empty input means no metric.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	if m.Valid() {
		return m, nil
	}
	return "", fmt.Errorf("invalid metric %q (expected percentage, count, rating, score or empty)", s)
}

// Valid reports whether the axis is known
func (a Axis) Valid() bool {
	return a == AxisPerformance || a == AxisPotential
}

// Valid reports whether the category is known
func (c Category) Valid() bool {
	return c == CategoryDepartment || c == CategoryRole || c == CategoryCommon
}

// Valid reports whether the priority is known
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Valid reports whether the metric is known
func (m Metric) Valid() bool {
	switch m {
	case MetricNone, MetricPercentage, MetricCount, MetricRating, MetricScore:
		return true
	}
	return false
}

// Label returns the human readable name used in tables
func (c Category) Label() string {
	switch c {
	case CategoryDepartment:
		return "Department"
	case CategoryRole:
		return "Role"
	case CategoryCommon:
		return "Common"
	}
	return string(c)
}

// Label returns the human readable name used in tables
func (a Axis) Label() string {
	switch a {
	case AxisPerformance:
		return "Performance"
	case AxisPotential:
		return "Potential"
	}
	return string(a)
}

// Description explains how a metric is measured
func (m Metric) Description() string {
	switch m {
	case MetricPercentage:
		return "Measured as percentage (0-100%)"
	case MetricCount:
		return "Measured as numeric count/quantity"
	case MetricRating:
		return "Measured on a rating scale"
	case MetricScore:
		return "Measured in points"
	}
	return ""
}
