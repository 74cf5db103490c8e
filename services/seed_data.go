package services

import "github.com/krshsl/placeprep/backend/models"

func apt(kind, question, a, b, c, d, correct, difficulty string) models.AptitudeQuestion {
	return models.AptitudeQuestion{
		Question: question, Type: kind,
		OptionA: a, OptionB: b, OptionC: c, OptionD: d,
		CorrectAnswer: correct, Difficulty: difficulty, IsActive: true,
	}
}

func tech(topic, difficulty, question, a, b, c, d, correct string) models.TechnicalQuestion {
	return models.TechnicalQuestion{
		Question: question, Topic: topic,
		OptionA: a, OptionB: b, OptionC: c, OptionD: d,
		CorrectAnswer: correct, Difficulty: difficulty, IsActive: true,
	}
}

func iq(roleType, topic, difficulty, question string) models.InterviewQuestion {
	return models.InterviewQuestion{
		QuestionText: question, RoleType: roleType, Topic: topic,
		Difficulty: difficulty, IsActive: true,
	}
}

func aptitudeSeed() []models.AptitudeQuestion {
	return []models.AptitudeQuestion{
		apt("quantitative", "A train 120 m long passes a pole in 6 seconds. What is its speed in km/h?", "60", "72", "80", "90", "b", "easy"),
		apt("quantitative", "What is 15% of 240?", "32", "34", "36", "38", "c", "easy"),
		apt("quantitative", "The average of 5 numbers is 20. If one number is removed the average becomes 18. What was the removed number?", "24", "26", "28", "30", "c", "medium"),
		apt("quantitative", "A shopkeeper sells an item for Rs 660 at a 10% profit. What was the cost price?", "580", "594", "600", "610", "c", "medium"),
		apt("quantitative", "A can finish a job in 12 days and B in 18 days. How many days do they take together?", "6.6", "7.2", "7.5", "8", "b", "medium"),
		apt("quantitative", "Simple interest on Rs 5000 at 8% per annum for 3 years is:", "1000", "1100", "1200", "1300", "c", "easy"),
		apt("quantitative", "The ratio of boys to girls is 3:2. If there are 30 girls, how many students are there?", "60", "70", "75", "80", "c", "easy"),
		apt("quantitative", "A pipe fills a tank in 4 hours and another empties it in 6 hours. With both open, how long to fill it?", "10 hours", "12 hours", "14 hours", "16 hours", "b", "hard"),

		apt("logical", "Find the next number: 2, 6, 12, 20, 30, ?", "40", "42", "44", "46", "b", "easy"),
		apt("logical", "If all roses are flowers and some flowers fade quickly, which is certainly true?", "All roses fade quickly", "Some roses fade quickly", "No rose fades quickly", "None of these follows", "d", "medium"),
		apt("logical", "If CAT is coded as 3120, how is DOG coded?", "4157", "4158", "4147", "4167", "a", "medium"),
		apt("logical", "Pointing to a man, Riya says 'He is the son of my mother's only brother.' How is he related to Riya?", "Brother", "Cousin", "Uncle", "Nephew", "b", "easy"),
		apt("logical", "Which word does not belong: Apple, Mango, Carrot, Banana?", "Apple", "Mango", "Carrot", "Banana", "c", "easy"),
		apt("logical", "A man walks 5 km north, turns right and walks 3 km, then turns right and walks 5 km. How far is he from the start?", "3 km", "5 km", "8 km", "13 km", "a", "medium"),
		apt("logical", "Find the odd one out: 27, 64, 125, 144, 216", "27", "64", "144", "216", "c", "easy"),
		apt("logical", "In a row of 40 students, Amit is 15th from the left. What is his position from the right?", "24th", "25th", "26th", "27th", "c", "hard"),

		apt("verbal", "Choose the synonym of 'Abundant'.", "Scarce", "Plentiful", "Rare", "Meagre", "b", "easy"),
		apt("verbal", "Choose the antonym of 'Transparent'.", "Clear", "Opaque", "Visible", "Lucid", "b", "easy"),
		apt("verbal", "Fill in the blank: She has been working here ___ 2019.", "for", "since", "from", "by", "b", "easy"),
		apt("verbal", "Identify the correctly spelt word.", "Accomodate", "Acommodate", "Accommodate", "Acomodate", "c", "medium"),
		apt("verbal", "Choose the meaning of the idiom 'to break the ice'.", "To start a conversation", "To end a friendship", "To cause trouble", "To win easily", "a", "easy"),
		apt("verbal", "Select the correct sentence.", "Neither of them are ready", "Neither of them is ready", "Neither of them were ready", "Neither of them be ready", "b", "medium"),
		apt("verbal", "Choose the word closest in meaning to 'Ephemeral'.", "Lasting", "Short-lived", "Ancient", "Eternal", "b", "hard"),
		apt("verbal", "Choose the one-word substitute for 'a person who speaks many languages'.", "Linguist", "Polyglot", "Orator", "Translator", "b", "medium"),
	}
}

func technicalSeed() []models.TechnicalQuestion {
	return []models.TechnicalQuestion{
		tech("frontend", "easy", "Which HTML tag creates a hyperlink?", "<link>", "<a>", "<href>", "<nav>", "b"),
		tech("frontend", "easy", "Which CSS property changes the text color?", "font-color", "text-color", "color", "foreground", "c"),
		tech("frontend", "easy", "Which keyword declares a block scoped variable in JavaScript?", "var", "let", "def", "dim", "b"),
		tech("frontend", "easy", "What does DOM stand for?", "Document Object Model", "Data Object Model", "Document Oriented Markup", "Display Object Management", "a"),
		tech("frontend", "easy", "Which React hook stores local component state?", "useEffect", "useState", "useMemo", "useRef", "b"),
		tech("frontend", "easy", "Which HTML attribute provides alternative text for an image?", "title", "alt", "src", "label", "b"),
		tech("frontend", "medium", "What does the CSS value display: flex do?", "Hides the element", "Makes the element a flex container", "Floats the element left", "Positions the element absolutely", "b"),
		tech("frontend", "medium", "What is the output of typeof null in JavaScript?", "null", "undefined", "object", "number", "c"),
		tech("frontend", "medium", "When does a useEffect with an empty dependency array run?", "On every render", "Only after the first render", "Never", "Before the first render", "b"),
		tech("frontend", "medium", "Which method creates a new array with the results of calling a function on every element?", "forEach", "map", "filter", "reduce", "b"),
		tech("frontend", "medium", "What is event bubbling?", "Events propagate from the target up to its ancestors", "Events propagate from the root down to the target", "Events fire twice", "Events are cancelled automatically", "a"),
		tech("frontend", "medium", "Which CSS unit is relative to the root element font size?", "em", "rem", "px", "vh", "b"),
		tech("frontend", "medium", "What does the key prop help React do in lists?", "Style list items", "Identify items between renders", "Sort items", "Bind events", "b"),
		tech("frontend", "hard", "Which statement about JavaScript closures is true?", "They copy variables by value at creation", "They keep access to variables of the enclosing scope", "They only work in classes", "They prevent garbage collection of all objects", "b"),
		tech("frontend", "hard", "In what order do these run: a resolved Promise callback, a setTimeout(0) callback and synchronous code?", "setTimeout, Promise, sync", "sync, Promise, setTimeout", "Promise, sync, setTimeout", "sync, setTimeout, Promise", "b"),
		tech("frontend", "hard", "What does CSS specificity decide?", "Load order of stylesheets", "Which conflicting rule applies to an element", "How fast a selector matches", "The z-index of an element", "b"),

		tech("backend", "easy", "Which HTTP method is typically used to create a resource?", "GET", "POST", "DELETE", "HEAD", "b"),
		tech("backend", "easy", "Which HTTP status code means Not Found?", "200", "301", "404", "500", "c"),
		tech("backend", "easy", "Which SQL clause filters rows?", "ORDER BY", "WHERE", "GROUP BY", "SELECT", "b"),
		tech("backend", "easy", "What does REST stand for?", "Remote Execution State Transfer", "Representational State Transfer", "Resource Encoded Service Transport", "Reliable State Transmission", "b"),
		tech("backend", "easy", "Which data format is most common for REST API payloads?", "CSV", "JSON", "YAML", "INI", "b"),
		tech("backend", "easy", "What does a primary key guarantee?", "Rows are sorted", "Each row is uniquely identified", "Columns are indexed by default in every database", "Values are encrypted", "b"),
		tech("backend", "medium", "Which SQL JOIN returns only rows with matches in both tables?", "LEFT JOIN", "RIGHT JOIN", "INNER JOIN", "FULL OUTER JOIN", "c"),
		tech("backend", "medium", "What is an idempotent HTTP method?", "One that never changes state", "One where repeating the request has the same effect as doing it once", "One that requires authentication", "One that returns no body", "b"),
		tech("backend", "medium", "What does database indexing mainly improve?", "Write speed", "Read and lookup speed", "Storage size", "Backup time", "b"),
		tech("backend", "medium", "What is the purpose of a database transaction?", "Group operations so they succeed or fail together", "Speed up reads", "Compress data", "Replicate data", "a"),
		tech("backend", "medium", "Which status code should a server return when a request is rate limited?", "400", "403", "429", "503", "c"),
		tech("backend", "medium", "What is stored in a JWT payload?", "Encrypted passwords", "Claims about the subject", "The private signing key", "Database rows", "b"),
		tech("backend", "medium", "What does normalization in relational databases reduce?", "Query speed", "Data redundancy", "Number of tables", "Index usage", "b"),
		tech("backend", "hard", "Which isolation level prevents dirty reads but allows non-repeatable reads?", "Read Uncommitted", "Read Committed", "Repeatable Read", "Serializable", "b"),
		tech("backend", "hard", "In the CAP theorem, what must a distributed system give up during a network partition?", "Either consistency or availability", "Partition tolerance", "Durability", "Latency", "a"),
		tech("backend", "hard", "What problem does a message queue primarily solve between services?", "Schema migration", "Decoupling producers from consumers", "Password hashing", "TLS termination", "b"),
	}
}

func interviewSeed() []models.InterviewQuestion {
	return []models.InterviewQuestion{
		iq("Software Engineer", "Data Structures", models.DifficultyEasy, "Explain the difference between an array and a linked list, and when you would use each."),
		iq("Software Engineer", "Data Structures", models.DifficultyMedium, "How does a hash map handle collisions, and how does that affect lookup time?"),
		iq("Software Engineer", "Algorithms", models.DifficultyMedium, "Walk me through how you would find the first non-repeating character in a string."),
		iq("Software Engineer", "Algorithms", models.DifficultyHard, "How would you detect a cycle in a directed graph? Discuss the time complexity."),
		iq("Software Engineer", "System Design", models.DifficultyHard, "Design a URL shortening service. What are the main components and how would it scale?"),
		iq("Software Engineer", "Databases", models.DifficultyMedium, "What are database indexes, and what trade-offs do they introduce?"),
		iq("Backend Developer", "Backend Development", models.DifficultyMedium, "How would you design a REST API for a library management system?"),
		iq("Backend Developer", "Backend Development", models.DifficultyHard, "How would you make an API endpoint safe to retry when clients time out?"),
		iq("Backend Developer", "Go", models.DifficultyMedium, "Explain goroutines and channels, and describe a bug you could hit when using them."),
		iq("Frontend Developer", "React", models.DifficultyEasy, "What is the difference between state and props in React?"),
		iq("Frontend Developer", "React", models.DifficultyMedium, "How would you find and fix a React component that re-renders too often?"),
		iq("Frontend Developer", "JavaScript", models.DifficultyMedium, "Explain how the JavaScript event loop works."),
		iq("Data Analyst", "SQL", models.DifficultyEasy, "What is the difference between WHERE and HAVING in SQL?"),
		iq("Data Analyst", "SQL", models.DifficultyMedium, "How would you find the second highest salary in an employees table?"),
		iq("General", "Behavioral", models.DifficultyEasy, "Tell me about a project you are proud of and the role you played in it."),
		iq("General", "Behavioral", models.DifficultyMedium, "Describe a time you disagreed with a teammate. How did you resolve it?"),
		iq("General", "Communication", models.DifficultyEasy, "How would you explain a technical concept you know well to a non-technical person?"),
	}
}
