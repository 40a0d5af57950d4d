package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// Database schema overview:
// 1. agents - Insurance agents whose calls are analyzed, with derived performance metrics
// 2. call_recordings - Uploaded customer call audio, owning the pipeline status lifecycle
// 3. call_analyses - One AI analysis per recording (transcript, scores, compliance)
// 4. reports - Generated aggregate spreadsheet reports for a date range
// 5. training_sessions - Text-based training drills scored by the evaluator
