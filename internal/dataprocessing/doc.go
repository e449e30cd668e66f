// Package dataprocessing turns raw workbook cells into typed records.
//
// # Components
//
// The package is organized into four parts:
//
//  1. Numeric: Swedish-style number and amount parsing (space or dot
//     thousands separators, decimal comma, currency suffixes)
//  2. FX: conversion of foreign amounts to SEK
//  3. Extractor: row extraction for order books, article sales and
//     customer sales, driven by OrderColumns, ArticleColumns and
//     CustomerColumns
//  4. MasterParser: the multi-sheet master work file with its LTM period
//     columns
//
// # Usage
//
//	wb, err := workbook.OpenFile("Orderstock v14.xlsx")
//	if err != nil {
//	    return err
//	}
//	defer wb.Close()
//
//	sheet, err := workbook.Resolve(wb, []string{"Order book", "Orderstock"})
//	if err != nil {
//	    return err
//	}
//
//	ex := dataprocessing.NewExtractor(logger, dataprocessing.ExtractorOptions{})
//	cols := dataprocessing.DefaultOrderColumns().ResolveHeaders(wb, sheet)
//	orders, stats := ex.ExtractOrders(ctx, wb, sheet, cols, dataprocessing.DefaultFXTable())
//
// Rows that cannot be read are skipped and counted in the returned
// ExtractStats rather than failing the run.
package dataprocessing
