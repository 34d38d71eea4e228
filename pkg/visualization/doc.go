// Package visualization renders mosaic plans of overlay slices to images.
package visualization
