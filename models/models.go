package models

// Database schema overview:
// 1. users - students and admins, including the profile used for personalisation
// 2. refresh_tokens, permanent_tokens - hashed cookie tokens
// 3. aptitude_questions, technical_questions - MCQ banks
// 4. aptitude_test_results, technical_test_results - graded exam attempts with proctoring counts
// 5. interview_questions - open-ended mock interview bank
// 6. mock_interview_sessions - one row per sitting, open while ended_at is NULL
// 7. interview_responses - AI-scored answers within a session
// 8. user_performance_metrics - running average score per student and topic
// 9. resume_reviews - stored ATS analyses
