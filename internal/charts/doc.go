// Package charts renders report figures as PNG images with gonum/plot.
package charts
